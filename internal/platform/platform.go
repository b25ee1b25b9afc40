package platform

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// IsWindows returns true if running on Windows
func IsWindows() bool {
	return runtime.GOOS == "windows"
}

// FindADBPath finds the path to the adb binary.
// ADB_PATH wins, then ANDROID_HOME, then common install locations, then PATH.
func FindADBPath() string {
	if adbPath := os.Getenv("ADB_PATH"); adbPath != "" {
		if _, err := os.Stat(adbPath); err == nil {
			return adbPath
		}
	}

	name := "adb"
	if IsWindows() {
		name = "adb.exe"
	}

	var candidates []string
	if sdk := os.Getenv("ANDROID_HOME"); sdk != "" {
		candidates = append(candidates, filepath.Join(sdk, "platform-tools", name))
	}
	if !IsWindows() {
		candidates = append(candidates, "/opt/homebrew/bin/adb", "/usr/local/bin/adb", "/usr/bin/adb")
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	if path, err := exec.LookPath(name); err == nil {
		return path
	}
	return name
}

// CheckADBAvailable checks if ADB is available and working
func CheckADBAvailable() error {
	cmd := exec.Command(FindADBPath(), "version")
	output, err := cmd.Output()
	if err != nil {
		return fmt.Errorf("adb command not found or failed: %v. Install with:\n- macOS: brew install --cask android-platform-tools\n- Linux: sudo apt install android-tools-adb\n- Windows: Download from developer.android.com/tools/releases/platform-tools", err)
	}

	if !strings.Contains(string(output), "Android Debug Bridge") {
		return errors.New("adb command did not return expected version output")
	}
	return nil
}

// CheckADBDeviceConnected checks if an authorized Android device is connected
func CheckADBDeviceConnected() error {
	output, err := exec.Command(FindADBPath(), "devices").Output()
	if err != nil {
		return fmt.Errorf("failed to list ADB devices: %v", err)
	}

	devices, unauthorized := ParseADBDevices(string(output))
	if devices == 0 && unauthorized == 0 {
		return errors.New("no Android devices found. Please:\n1. Connect device via USB\n2. Enable USB debugging in Developer Options\n3. Ensure USB cable supports data transfer")
	}
	if devices == 0 {
		return errors.New("Android device found but unauthorized. Please:\n1. Check device screen for USB debugging prompt\n2. Tap 'Allow' to authorize this computer\n3. Ensure device is unlocked")
	}
	return nil
}

// ParseADBDevices counts ready and unauthorized devices in `adb devices` output
func ParseADBDevices(output string) (devices, unauthorized int) {
	lines := strings.Split(output, "\n")
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) < 2 || strings.HasPrefix(line, "List of devices") || strings.HasPrefix(line, "*") {
			continue
		}
		switch fields[1] {
		case "device":
			devices++
		case "unauthorized":
			unauthorized++
		}
	}
	return devices, unauthorized
}
