package daemon

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

var (
	unitPath  = "/etc/systemd/system/gridlevel.service"
	systemctl = "/bin/systemctl"
)

const unitTemplate = `[Unit]
Description=gridlevel centering daemon
After=network-online.target
Wants=network-online.target

[Service]
Type=simple
ExecStart=/path/to/gridlevel daemon --config=/path/to/config --daemon-socket=/path/to/socket
ExecReload=/bin/kill -HUP $MAINPID
Restart=on-failure
RestartSec=2

[Install]
WantedBy=multi-user.target
`

// renderUnit fills the unit template with the binary, config and socket paths.
func renderUnit(exePath, configPath, socketPath string) string {
	return strings.NewReplacer(
		"/path/to/gridlevel", exePath,
		"/path/to/config", configPath,
		"/path/to/socket", socketPath,
	).Replace(unitTemplate)
}

func Install(configPath, socketPath string) error {
	// Get the path to the current executable
	exePath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get the path to the current executable: %w", err)
	}
	exePath, err = filepath.Abs(exePath)
	if err != nil {
		return fmt.Errorf("failed to get the absolute path to the current executable: %w", err)
	}

	err = os.Chmod(exePath, 0755)
	if err != nil {
		return fmt.Errorf("failed to chmod the current executable to 0755: %w", err)
	}

	logrus.Infof("current executable path: %s", exePath)

	unit := renderUnit(exePath, configPath, socketPath)

	logrus.Infof("writing systemd unit to %s", filepath.Dir(unitPath))

	// mkdir -p
	err = os.MkdirAll(filepath.Dir(unitPath), 0755)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(unitPath), err)
	}

	// warn if the file already exists
	_, err = os.Stat(unitPath)
	if err == nil {
		logrus.Warnf("%s already exists, overwriting", unitPath)
	}

	err = os.WriteFile(unitPath, []byte(unit), 0644)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", unitPath, err)
	}

	logrus.Infof("starting gridlevel")

	for _, args := range [][]string{
		{"daemon-reload"},
		{"enable", "--now", filepath.Base(unitPath)},
	} {
		if out, err := exec.Command(systemctl, args...).CombinedOutput(); err != nil {
			return fmt.Errorf("systemctl %s failed: %w: %s", strings.Join(args, " "), err, out)
		}
	}

	return nil
}
