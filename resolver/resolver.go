//go:build linux

// Package resolver translates symbolic names to runtime addresses by parsing
// the ELF symbol tables of opened libraries and scanning the process's
// memory map for additional candidates, the way a dynamic linker's
// dlopen/dlsym pair would for a caller that cannot call into it directly.
package resolver

import (
	"bufio"
	"debug/elf"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/teristalegan6-debug/TeristaSpaceV1/errs"
)

// SymbolRecord describes one resolved symbol.
type SymbolRecord struct {
	Name        string
	Address     uintptr
	LibraryPath string
	IsFunction  bool
}

// LoadedLibrary is one opened, registered shared object.
type LoadedLibrary struct {
	Path    string
	Base    uintptr
	symbols map[string]SymbolRecord
}

// Resolver owns the registry of opened libraries and the name/address cache
// built on top of them. A single coordinator-level lock serializes mutation;
// callers needing hot-path lookups should snapshot results rather than hold
// the resolver across calls.
type Resolver struct {
	logger *zap.Logger

	mu      sync.Mutex
	order   []string
	byPath  map[string]*LoadedLibrary
	cache   map[string]uintptr // "path::name" for scoped, "name" for global
}

// New constructs an empty Resolver.
func New(logger *zap.Logger) *Resolver {
	return &Resolver{
		logger: logger,
		byPath: make(map[string]*LoadedLibrary),
		cache:  make(map[string]uintptr),
	}
}

func scopedKey(path, name string) string {
	return path + "::" + name
}

// Open parses path as an ELF object, verifies its magic and class, and
// registers its exported and local symbols under path exactly as given. The
// path is not canonicalized, so two different spellings of one file register
// as two libraries. Opening the same path twice is a no-op that returns nil.
func (r *Resolver) Open(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byPath[path]; ok {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	ef, err := elf.NewFile(f)
	if err != nil {
		return fmt.Errorf("open %s: not an ELF object: %w", path, err)
	}
	defer ef.Close()

	switch ef.Class {
	case elf.ELFCLASS32, elf.ELFCLASS64:
	default:
		return fmt.Errorf("open %s: unrecognized ELF class", path)
	}

	lib := &LoadedLibrary{Path: path, symbols: make(map[string]SymbolRecord)}

	syms, symErr := ef.Symbols()
	dynsyms, dynErr := ef.DynamicSymbols()
	if symErr != nil && dynErr != nil {
		return fmt.Errorf("open %s: no symbol table: %w", path, symErr)
	}

	addSymbol := func(s elf.Symbol) {
		if s.Name == "" || s.Value == 0 {
			return
		}
		lib.symbols[s.Name] = SymbolRecord{
			Name:        s.Name,
			Address:     uintptr(s.Value),
			LibraryPath: path,
			IsFunction:  elf.ST_TYPE(s.Info) == elf.STT_FUNC,
		}
	}
	for _, s := range syms {
		addSymbol(s)
	}
	for _, s := range dynsyms {
		addSymbol(s)
	}

	for _, prog := range ef.Progs {
		if prog.Type == elf.PT_LOAD && prog.Off == 0 {
			lib.Base = uintptr(prog.Vaddr)
			break
		}
	}

	r.byPath[path] = lib
	r.order = append(r.order, path)

	if r.logger != nil {
		r.logger.Debug("library opened", zap.String("path", path), zap.Int("symbols", len(lib.symbols)))
	}
	return nil
}

// Close unregisters path and drops its cached symbols. Global-scope cache
// entries that resolved through this library are left in place: a resolved
// address outlives the record that produced it, matching the observable
// behavior a caller sees once a returned address has already been used.
func (r *Resolver) Close(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byPath[path]; !ok {
		return fmt.Errorf("close %s: %w", path, errs.ErrSymbolNotFound)
	}
	delete(r.byPath, path)
	for i, p := range r.order {
		if p == path {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	for key := range r.cache {
		if strings.HasPrefix(key, path+"::") {
			delete(r.cache, key)
		}
	}
	return nil
}

// Register manually adds a symbol record under libraryPath without parsing
// an object file, for callers that already have a resolved address (for
// instance a host bridge handing the engine a symbol it looked up itself).
// It creates libraryPath's registry entry if this is the first symbol
// registered under it.
func (r *Resolver) Register(libraryPath, name string, addr uintptr, isFunction bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	lib, ok := r.byPath[libraryPath]
	if !ok {
		lib = &LoadedLibrary{Path: libraryPath, symbols: make(map[string]SymbolRecord)}
		r.byPath[libraryPath] = lib
		r.order = append(r.order, libraryPath)
	}
	lib.symbols[name] = SymbolRecord{Name: name, Address: addr, LibraryPath: libraryPath, IsFunction: isFunction}
}

// Resolve looks up name within path's symbol table, consulting and
// populating the scoped cache entry.
func (r *Resolver) Resolve(path, name string) (uintptr, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := scopedKey(path, name)
	if addr, ok := r.cache[key]; ok {
		return addr, true
	}

	lib, ok := r.byPath[path]
	if !ok {
		return 0, false
	}
	rec, ok := lib.symbols[name]
	if !ok {
		return 0, false
	}
	r.cache[key] = rec.Address
	return rec.Address, true
}

// ResolveAny iterates registered libraries in registration order and returns
// the first match, falling back to nothing once every library has been
// checked (there is no separate linker global scope to fall back to here).
func (r *Resolver) ResolveAny(name string) (uintptr, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if addr, ok := r.cache[name]; ok {
		return addr, true
	}
	for _, path := range r.order {
		lib := r.byPath[path]
		if rec, ok := lib.symbols[name]; ok {
			r.cache[name] = rec.Address
			return rec.Address, true
		}
	}
	return 0, false
}

// ListLoaded returns the registered library paths in registration order.
func (r *Resolver) ListLoaded() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// NameOf reverse-looks-up addr against every registered library's symbol
// table, returning the owning symbol name and library path.
func (r *Resolver) NameOf(addr uintptr) (name string, library string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, path := range r.order {
		lib := r.byPath[path]
		for _, rec := range lib.symbols {
			if rec.Address == addr {
				return rec.Name, path, true
			}
		}
	}
	return "", "", false
}

// FindByPattern returns every symbol across all registered libraries whose
// name matches re, sorted by name for deterministic output.
func (r *Resolver) FindByPattern(re *regexp.Regexp) []SymbolRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []SymbolRecord
	for _, path := range r.order {
		lib := r.byPath[path]
		for _, rec := range lib.symbols {
			if re.MatchString(rec.Name) {
				out = append(out, rec)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ClearCache drops every cached resolution (scoped and global) without
// unregistering any library; subsequent Resolve/ResolveAny calls re-derive
// from each library's own symbol table.
func (r *Resolver) ClearCache() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[string]uintptr)
}

// ScanProcessMaps reads /proc/self/maps, harvests distinct shared-library
// paths, and opens each one. Libraries that fail to parse as ELF are
// skipped rather than treated as fatal, since the map also lists the
// executable itself and any non-ELF mapped files.
func (r *Resolver) ScanProcessMaps() error {
	f, err := os.Open("/proc/self/maps")
	if err != nil {
		return fmt.Errorf("scan process maps: %w", err)
	}
	defer f.Close()

	seen := make(map[string]bool)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		fields := strings.Fields(line)
		if len(fields) < 6 {
			continue
		}
		path := fields[len(fields)-1]
		if !strings.HasPrefix(path, "/") || !strings.Contains(path, ".so") {
			continue
		}
		if seen[path] {
			continue
		}
		seen[path] = true
		if err := r.Open(path); err != nil && r.logger != nil {
			r.logger.Debug("skipping unparseable mapped library", zap.String("path", path), zap.Error(err))
		}
	}
	return scanner.Err()
}

// DeviceForFD reports whether the file descriptor fd's target path contains
// "binder", identifying the IPC driver's device node without parsing it.
func DeviceForFD(fd int) (string, bool) {
	target, err := os.Readlink(fmt.Sprintf("/proc/self/fd/%d", fd))
	if err != nil {
		return "", false
	}
	return target, strings.Contains(target, "binder")
}
