// Package loader reads declarative unlock content (Lua or YAML files) into
// immutable definitions. The Lua VM is discarded after loading.
package loader

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/unlockcore/types"
)

// Content is a loaded and validated content pack.
type Content struct {
	Meta     types.ContentMeta
	Unlocks  []types.UnlockDef
	Sources  []string // file each unlock came from, parallel to Unlocks
	Warnings []string
}

// collector accumulates Lua definitions during file execution.
type collector struct {
	content *lua.LTable
	unlocks []rawUnlock
	file    string
	order   int
}

func (c *collector) nextSourceOrder() int {
	c.order++
	return c.order
}

// Load reads all .lua, .yaml and .yml files from dir, compiles them,
// validates the result and returns the content. Warnings are logged to log
// (which may be nil) and kept on the returned Content.
func Load(dir string, log *slog.Logger) (*Content, error) {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading content directory %s: %w", dir, err)
	}

	var luaFiles, yamlFiles []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".lua":
			luaFiles = append(luaFiles, e.Name())
		case ".yaml", ".yml":
			yamlFiles = append(yamlFiles, e.Name())
		}
	}
	if len(luaFiles) == 0 && len(yamlFiles) == 0 {
		return nil, fmt.Errorf("no .lua or .yaml files found in %s", dir)
	}

	content := &Content{}

	if len(luaFiles) > 0 {
		c, err := loadLua(dir, sortedContentFiles(luaFiles))
		if err != nil {
			return nil, err
		}
		merge(content, c)
	}

	for _, f := range sortedContentFiles(yamlFiles) {
		data, err := os.ReadFile(filepath.Join(dir, f))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", f, err)
		}
		c, err := parseYAML(data, f)
		if err != nil {
			return nil, err
		}
		merge(content, c)
	}

	if err := validate(content); err != nil {
		return nil, err
	}
	for _, w := range content.Warnings {
		log.Warn("content warning", "dir", dir, "warning", w)
	}
	return content, nil
}

// LoadYAML parses and validates a single YAML document.
func LoadYAML(data []byte, source string) (*Content, error) {
	c, err := parseYAML(data, source)
	if err != nil {
		return nil, err
	}
	if err := validate(c); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadLuaString executes a Lua chunk and validates the unlocks it declares.
func LoadLuaString(src, source string) (*Content, error) {
	L, coll := newVM()
	defer L.Close()
	coll.file = source
	if err := L.DoString(src); err != nil {
		return nil, fmt.Errorf("executing %s: %w", source, err)
	}
	c, err := compileLua(coll)
	if err != nil {
		return nil, err
	}
	if err := validate(c); err != nil {
		return nil, err
	}
	return c, nil
}

func loadLua(dir string, files []string) (*Content, error) {
	L, coll := newVM()
	defer L.Close()

	for _, f := range files {
		coll.file = f
		if err := L.DoFile(filepath.Join(dir, f)); err != nil {
			return nil, fmt.Errorf("executing %s: %w", f, err)
		}
	}
	return compileLua(coll)
}

// merge appends src into dst. The first non-empty metadata wins.
func merge(dst, src *Content) {
	if dst.Meta.Title == "" {
		dst.Meta.Title = src.Meta.Title
	}
	if dst.Meta.Version == "" {
		dst.Meta.Version = src.Meta.Version
	}
	dst.Unlocks = append(dst.Unlocks, src.Unlocks...)
	dst.Sources = append(dst.Sources, src.Sources...)
}

// newVM creates a sandboxed VM with the content API registered.
func newVM() (*lua.LState, *collector) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibs(L)
	sandbox(L)
	coll := &collector{}
	registerAPI(L, coll)
	return L, coll
}

// openSafeLibs opens only the safe subset of Lua standard libraries.
func openSafeLibs(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// sandbox removes globals that could reach the filesystem or break determinism.
func sandbox(L *lua.LState) {
	dangerous := []string{
		"dofile", "loadfile", "load", "loadstring",
		"rawset", "rawget", "rawequal",
		"collectgarbage",
	}
	for _, name := range dangerous {
		L.SetGlobal(name, lua.LNil)
	}

	if mathTbl, ok := L.GetGlobal("math").(*lua.LTable); ok {
		mathTbl.RawSetString("random", lua.LNil)
		mathTbl.RawSetString("randomseed", lua.LNil)
	}
}
