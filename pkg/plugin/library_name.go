package plugin

import "runtime"

// NativeLibraryName rewrites a bare library name (e.g. "my_filter") into the
// host-native shared object filename: "libmy_filter.dylib" on macOS,
// "my_filter.dll" on Windows (no "lib" prefix), "libmy_filter.so" elsewhere.
func NativeLibraryName(name string) string {
	return nativeLibraryNameForGOOS(name, runtime.GOOS)
}

func nativeLibraryNameForGOOS(name, goos string) string {
	switch goos {
	case "windows":
		return name + ".dll"
	case "darwin":
		return "lib" + name + ".dylib"
	default:
		return "lib" + name + ".so"
	}
}
