package util

import (
	"os/exec"
	"runtime"
)

// openCommand 用系统默认程序打开文件的命令
func openCommand(goos, path string) *exec.Cmd {
	switch goos {
	case "windows":
		// rundll32 兼容 Windows 7 至 11
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", path)
	case "darwin":
		return exec.Command("open", path)
	default:
		return exec.Command("xdg-open", path)
	}
}

// OpenFile 用默认程序打开文件（如用 Excel 打开工作簿）
func OpenFile(path string) error {
	return openCommand(runtime.GOOS, path).Start()
}

// OpenFileWithFallback 默认方式失败时尝试备选程序
func OpenFileWithFallback(path string) error {
	err := OpenFile(path)
	if err == nil {
		return nil
	}

	switch runtime.GOOS {
	case "windows":
		return exec.Command("explorer", path).Start()
	case "linux":
		for _, app := range []string{"libreoffice", "soffice", "gio"} {
			args := []string{path}
			if app == "gio" {
				args = []string{"open", path}
			}
			if err := exec.Command(app, args...).Start(); err == nil {
				return nil
			}
		}
	}
	return err
}
