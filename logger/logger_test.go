package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zapcore"
)

// TestInitLogger ensures that the logger initializes properly.
func TestInitLogger(t *testing.T) {
	ResetLogger()
	logPath := filepath.Join(t.TempDir(), "tablecheck.log")
	SetLogPath(logPath)

	InitLogger()
	if log == nil {
		t.Fatal("Expected logger to be initialized, but got nil")
	}

	log.Info("Test log message")

	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		t.Fatal("Log file was not created")
	}
}

// TestGetLogger ensures that GetLogger returns a non-nil instance.
func TestGetLogger(t *testing.T) {
	ResetLogger()
	SetLogPath(filepath.Join(t.TempDir(), "tablecheck.log"))

	logger := GetLogger()
	if logger == nil {
		t.Fatal("Expected non-nil logger instance, but got nil")
	}
	if GetLogger() != logger {
		t.Fatal("Expected GetLogger to return the same instance")
	}
}

// TestLogOutput checks that messages reach the JSON log file.
func TestLogOutput(t *testing.T) {
	ResetLogger()
	logPath := filepath.Join(t.TempDir(), "tablecheck.log")
	SetLogPath(logPath)

	InitLogger()
	log.Info("Writing to log file")
	Sync()

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !bytes.Contains(data, []byte("Writing to log file")) {
		t.Fatal("Expected log message not found in log file")
	}
}

func TestConfigure(t *testing.T) {
	defer func() {
		SetLevel(zapcore.InfoLevel)
		ResetLogger()
	}()

	logPath := filepath.Join(t.TempDir(), "tablecheck.log")
	if err := Configure("warn", logPath); err != nil {
		t.Fatalf("Configure: %v", err)
	}

	GetLogger().Info("dropped")
	GetLogger().Warn("kept")
	Sync()

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if bytes.Contains(data, []byte("dropped")) {
		t.Fatal("Info message written at warn level")
	}
	if !bytes.Contains(data, []byte("kept")) {
		t.Fatal("Warn message missing")
	}

	if err := Configure("loud", ""); err == nil {
		t.Fatal("Expected an error for an unknown level")
	}
}

func TestNoLogFile(t *testing.T) {
	ResetLogger()
	SetLogPath("")
	defer SetLogPath("tablecheck.log")

	GetLogger().Info("console only")
	Sync()
}
