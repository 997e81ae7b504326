package x11

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// DefaultSocketDir is where X servers create their listening sockets.
const DefaultSocketDir = "/tmp/.X11-unix"

var (
	getenvFn                  = os.Getenv
	setenvFn                  = os.Setenv
	runCommandOutputFn        = runCommandOutput
	readFileFn                = os.ReadFile
	readDirFn                 = os.ReadDir
	detectSessionX11EnvFn     = detectSessionX11Env
	detectDisplayFromSocketFn = detectDisplayFromSockets
)

// DisplayEnv is the X display a renderer should connect to and where that
// choice came from.
type DisplayEnv struct {
	Display    string
	XAuthority string
	// Source is one of "flag", "env", "session" or "socket".
	Source string
}

// ResolveDisplay picks the display to connect to: an explicit value wins,
// then $DISPLAY, then the user's graphical login session, then the highest
// numbered socket in DefaultSocketDir.
func ResolveDisplay(explicit string) (DisplayEnv, error) {
	if d := strings.TrimSpace(explicit); d != "" {
		return DisplayEnv{Display: d, XAuthority: getenvFn("XAUTHORITY"), Source: "flag"}, nil
	}
	if d := strings.TrimSpace(getenvFn("DISPLAY")); d != "" {
		return DisplayEnv{Display: d, XAuthority: getenvFn("XAUTHORITY"), Source: "env"}, nil
	}

	if d, xauth := detectSessionX11EnvFn(); strings.TrimSpace(d) != "" {
		return DisplayEnv{Display: strings.TrimSpace(d), XAuthority: strings.TrimSpace(xauth), Source: "session"}, nil
	}

	if d := detectDisplayFromSocketFn(DefaultSocketDir); d != "" {
		return DisplayEnv{Display: d, XAuthority: homeXAuthority(), Source: "socket"}, nil
	}

	return DisplayEnv{}, fmt.Errorf("no X display found; set DISPLAY, pass --display, or set display in config")
}

// Apply exports XAUTHORITY for the X connection when it is not already set.
func (e DisplayEnv) Apply() error {
	if e.XAuthority == "" || getenvFn("XAUTHORITY") != "" {
		return nil
	}
	return setenvFn("XAUTHORITY", e.XAuthority)
}

func homeXAuthority() string {
	home := strings.TrimSpace(getenvFn("HOME"))
	if home == "" {
		if detected, err := os.UserHomeDir(); err == nil {
			home = detected
		}
	}
	if home == "" {
		return ""
	}
	candidate := filepath.Join(home, ".Xauthority")
	if _, err := os.Stat(candidate); err != nil {
		return ""
	}
	return candidate
}

func runCommandOutput(name string, args ...string) (string, error) {
	out, err := exec.Command(name, args...).Output()
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func detectSessionX11Env() (display string, xauthority string) {
	uid := strconv.Itoa(os.Getuid())
	out, err := runCommandOutputFn("loginctl", "list-sessions", "--no-legend")
	if err != nil {
		return "", ""
	}
	for _, sessionID := range parseLoginctlSessions(out, uid) {
		d := loginctlShowSessionProp(sessionID, "Display")
		if d == "" || strings.EqualFold(d, "n/a") {
			continue
		}

		xauth := ""
		leader := loginctlShowSessionProp(sessionID, "Leader")
		if leader != "" && leader != "0" {
			if envMap, err := readProcEnviron(leader); err == nil {
				if ed := strings.TrimSpace(envMap["DISPLAY"]); ed != "" {
					d = ed
				}
				xauth = strings.TrimSpace(envMap["XAUTHORITY"])
			}
		}
		return d, xauth
	}
	return "", ""
}

func parseLoginctlSessions(output string, uid string) []string {
	var sessions []string
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(strings.TrimSpace(line))
		if len(fields) < 2 {
			continue
		}
		if fields[1] == uid {
			sessions = append(sessions, fields[0])
		}
	}
	return sessions
}

func loginctlShowSessionProp(sessionID string, prop string) string {
	out, err := runCommandOutputFn("loginctl", "show-session", sessionID, "-p", prop, "--value")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(out)
}

func readProcEnviron(pid string) (map[string]string, error) {
	data, err := readFileFn(filepath.Join("/proc", pid, "environ"))
	if err != nil {
		return nil, err
	}

	env := make(map[string]string)
	for _, part := range strings.Split(string(data), "\x00") {
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		env[kv[0]] = kv[1]
	}
	return env, nil
}

func detectDisplayFromSockets(dir string) string {
	entries, err := readDirFn(dir)
	if err != nil {
		return ""
	}

	var displays []int
	for _, entry := range entries {
		name := entry.Name()
		if len(name) < 2 || name[0] != 'X' {
			continue
		}
		n, err := strconv.Atoi(name[1:])
		if err != nil {
			continue
		}
		displays = append(displays, n)
	}

	if len(displays) == 0 {
		return ""
	}
	sort.Ints(displays)
	return fmt.Sprintf(":%d", displays[len(displays)-1])
}
