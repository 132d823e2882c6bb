// Package version holds build information, overridable at link time:
//
//	go build -ldflags "-X github.com/TFMV/tablecheck/version.Version=1.2.0"
package version

var (
	Version   = "0.1.0"
	BuildDate = "2026-10-18"
)

func GetVersion() string {
	return Version
}

func GetBuildDate() string {
	return BuildDate
}
