package config

import (
	"os"
	"testing"
)

func assert(t *testing.T, cond bool, format string, args ...any) {
	t.Helper()
	if !cond {
		t.Fatalf(format, args...)
	}
}

func TestDefaults(t *testing.T) {
	os.Unsetenv("VIUA_VP_SCHEDULERS")
	os.Unsetenv("VIUA_QUANTUM")
	cfg := FromEnviron()
	assert(t, cfg.ProcessSchedulers == defaultSchedulerWorkers, "got %d", cfg.ProcessSchedulers)
	assert(t, cfg.Quantum == defaultQuantum, "got %d", cfg.Quantum)
}

func TestQuantumFromEnv(t *testing.T) {
	os.Setenv("VIUA_QUANTUM", "64")
	defer os.Unsetenv("VIUA_QUANTUM")
	cfg := FromEnviron()
	assert(t, cfg.Quantum == 64, "got %d, want 64", cfg.Quantum)
}

func TestLibraryPathPrefersNewName(t *testing.T) {
	os.Setenv("VIUAPATH", "/legacy")
	os.Setenv("VIUA_LIBRARY_PATH", "/a"+string(os.PathListSeparator)+"/b")
	defer os.Unsetenv("VIUAPATH")
	defer os.Unsetenv("VIUA_LIBRARY_PATH")
	cfg := FromEnviron()
	assert(t, len(cfg.LibraryPath) == 2, "got %d entries, want 2", len(cfg.LibraryPath))
	assert(t, cfg.LibraryPath[0] == "/a", "got %v", cfg.LibraryPath)
}
