//go:build windows

package pathenv

import (
	"path/filepath"
	"strings"

	"golang.org/x/sys/windows/registry"
)

const machineEnvKey = `SYSTEM\CurrentControlSet\Control\Session Manager\Environment`

// systemDirs returns the Machine then User Path entries from the registry,
// which installers update but the running process never sees.
func systemDirs() ([]string, error) {
	var dirs []string
	for _, src := range []struct {
		root registry.Key
		path string
	}{
		{registry.LOCAL_MACHINE, machineEnvKey},
		{registry.CURRENT_USER, "Environment"},
	} {
		value, err := readPath(src.root, src.path)
		if err != nil {
			return nil, err
		}
		dirs = append(dirs, filepath.SplitList(value)...)
	}
	return dirs, nil
}

func readPath(root registry.Key, path string) (string, error) {
	k, err := registry.OpenKey(root, path, registry.QUERY_VALUE)
	if err != nil {
		if err == registry.ErrNotExist {
			return "", nil
		}
		return "", err
	}
	defer k.Close()

	value, valType, err := k.GetStringValue("Path")
	if err != nil {
		if err == registry.ErrNotExist {
			return "", nil
		}
		return "", err
	}
	if valType == registry.EXPAND_SZ {
		if expanded, err := registry.ExpandString(value); err == nil {
			value = expanded
		}
	}
	return strings.TrimSpace(value), nil
}
