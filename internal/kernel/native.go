// Native-library import, per §4.3/§6: a loadable native module is a Go
// plugin (the POSIX-only mechanism the repo leans on, matching §1's
// explicit non-goal of "portability to non-POSIX hosts") exporting a
// symbol named Exports of type func() []kernel.NativeExport. Each export
// is registered into the Kernel's foreign-function table under its own
// Name, the Go-idiom counterpart to §6's "null-terminated array of
// {name_cstr, function_pointer} records".
package kernel

import (
	"fmt"
	"os"
	"path/filepath"
	"plugin"

	"viua/internal/process"
	"viua/internal/value"
)

// NativeExport is one entry of a loaded plugin's export table.
type NativeExport struct {
	Name string
	Fn   NativeFunc
}

// IsForeign implements process.Runtime: reports whether name is bound to a
// native function.
func (k *Kernel) IsForeign(name string) bool {
	k.foreignMu.Lock()
	defer k.foreignMu.Unlock()
	_, ok := k.foreign[name]
	return ok
}

// RegisterForeign installs fn under name in the foreign-function table,
// used both by Import (loading a plugin's exports) and by tests/preimport
// to register a stand-in native function directly.
func (k *Kernel) RegisterForeign(name string, fn NativeFunc) {
	k.foreignMu.Lock()
	defer k.foreignMu.Unlock()
	k.foreign[name] = fn
}

func (k *Kernel) lookupForeign(name string) (NativeFunc, bool) {
	k.foreignMu.Lock()
	defer k.foreignMu.Unlock()
	fn, ok := k.foreign[name]
	return fn, ok
}

// CallForeign implements process.Runtime: submits a synchronous
// native-function invocation to the FFI scheduler pool and blocks until
// it completes, per §4.5's "servicing synchronous native calls".
func (k *Kernel) CallForeign(caller value.Pid, name string, args *process.RegisterSet) (value.Value, error) {
	fn, ok := k.lookupForeign(name)
	if !ok {
		return nil, value.NewException(value.TagSymbolNotFound, "undefined foreign function "+name, nil)
	}
	if k.ffi == nil {
		result, exc := fn(args, nil, nil, caller, k)
		if exc != nil {
			return nil, exc
		}
		return result, nil
	}
	req := &ForeignCallRequest{
		Name:   name,
		Fn:     fn,
		Args:   args,
		Caller: caller,
		Kernel: k,
		done:   make(chan foreignResult, 1),
	}
	k.ffi.Submit(req)
	res := <-req.done
	return res.value, res.err
}

// Import implements process.Runtime: resolves name against
// VIUA_LIBRARY_PATH/VIUAPATH (§6) and loads its plugin-exported functions
// into the foreign-function table.
func (k *Kernel) Import(name string) error {
	path, err := k.findLibrary(name)
	if err != nil {
		return err
	}
	p, err := plugin.Open(path)
	if err != nil {
		return value.NewException(value.TagModuleNotFound, fmt.Sprintf("loading native module %q: %v", name, err), nil)
	}
	sym, err := p.Lookup("Exports")
	if err != nil {
		return value.NewException(value.TagSymbolNotFound, fmt.Sprintf("native module %q has no Exports symbol: %v", name, err), nil)
	}
	exportsFn, ok := sym.(func() []NativeExport)
	if !ok {
		return value.NewException(value.TagSymbolNotFound, fmt.Sprintf("native module %q's Exports has the wrong signature", name), nil)
	}
	for _, e := range exportsFn() {
		k.RegisterForeign(e.Name, e.Fn)
	}
	return nil
}

// findLibrary searches the configured library path for name+".so", the
// shared-object naming convention a Go plugin is built under.
func (k *Kernel) findLibrary(name string) (string, error) {
	filename := name + ".so"
	for _, dir := range k.cfg.LibraryPath {
		candidate := filepath.Join(dir, filename)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	if _, err := os.Stat(filename); err == nil {
		return filename, nil
	}
	return "", value.NewException(value.TagModuleNotFound, "native module not found: "+name, nil)
}

// Preimport loads every module named by VIUAPREIMPORT before the main
// process is bootstrapped, per §6.
func (k *Kernel) Preimport() error {
	for _, name := range k.cfg.Preimport {
		if err := k.Import(name); err != nil {
			return err
		}
	}
	return nil
}
