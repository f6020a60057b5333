package assets

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/matms/mat-engine/engine/assets/loaders"
	"github.com/matms/mat-engine/engine/core"
	"github.com/matms/mat-engine/engine/resources"
)

var ErrWatcherClosed = errors.New("asset watcher already closed")

type AssetInfo struct {
	Path       string
	Type       resources.ResourceType
	LastLoaded time.Time
}

// AssetManager indexes the files under an asset root, loads them through
// per-type loaders and, when watching, records which files changed so the
// main loop can reload them between frames.
type AssetManager struct {
	root    string
	assets  map[string]AssetInfo
	loaders map[resources.ResourceType]Loader

	mutex   sync.RWMutex
	changed map[string]struct{}

	done     chan struct{}
	fsnotify *fsnotify.Watcher
	isClosed bool
}

func NewAssetManager(root string) *AssetManager {
	am := &AssetManager{
		root:    root,
		assets:  make(map[string]AssetInfo),
		loaders: make(map[resources.ResourceType]Loader),
		changed: make(map[string]struct{}),
	}
	// Register loaders
	am.RegisterLoader(resources.ResourceTypeShader, &loaders.ShaderLoader{})
	am.RegisterLoader(resources.ResourceTypeImage, &loaders.ImageLoader{})
	am.RegisterLoader(resources.ResourceTypeBinary, &loaders.BinaryLoader{})
	am.RegisterLoader(resources.ResourceTypeBitmapFont, &loaders.BitmapFontLoader{ResourcePath: root})
	return am
}

// Initialize indexes the asset root and, if watch is set, starts watching it
// recursively. A missing root is not an error: the engine runs without assets.
func (am *AssetManager) Initialize(watch bool) error {
	if _, err := os.Stat(am.root); errors.Is(err, os.ErrNotExist) {
		core.LogWarn("asset directory %s does not exist", am.root)
		return nil
	}

	if watch {
		fsWatch, err := fsnotify.NewWatcher()
		if err != nil {
			return err
		}
		am.fsnotify = fsWatch
		am.done = make(chan struct{})
		go am.start()
	}
	return am.walk(am.root)
}

func (am *AssetManager) Root() string {
	return am.root
}

// Register loaders for each asset type
func (am *AssetManager) RegisterLoader(assetType resources.ResourceType, loader Loader) {
	am.loaders[assetType] = loader
}

// Resolve joins a path relative to the asset root.
func (am *AssetManager) Resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(am.root, name)
}

// LoadAsset loads name (relative to the root) with the loader registered for
// its type.
func (am *AssetManager) LoadAsset(name string, params interface{}) (*resources.Resource, error) {
	path := am.Resolve(name)
	assetType := determineAssetType(path)

	loader, loaderExists := am.loaders[assetType]
	if !loaderExists {
		return nil, fmt.Errorf("no loader registered for asset type %s (%s)", assetType, path)
	}
	res, err := loader.Load(path, params)
	if err != nil {
		return nil, err
	}

	am.mutex.Lock()
	am.assets[path] = AssetInfo{Path: path, Type: assetType, LastLoaded: time.Now()}
	am.mutex.Unlock()
	return res, nil
}

func (am *AssetManager) UnloadAsset(res *resources.Resource) error {
	loader, ok := am.loaders[res.Type]
	if !ok {
		return fmt.Errorf("no loader registered for asset type %s", res.Type)
	}
	return loader.Unload(res)
}

// Assets returns the indexed asset infos sorted by path.
func (am *AssetManager) Assets() []AssetInfo {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	out := make([]AssetInfo, 0, len(am.assets))
	for _, a := range am.assets {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// TakeChanged returns the files written since the last call, sorted.
func (am *AssetManager) TakeChanged() []string {
	am.mutex.Lock()
	defer am.mutex.Unlock()
	if len(am.changed) == 0 {
		return nil
	}
	out := make([]string, 0, len(am.changed))
	for p := range am.changed {
		out = append(out, p)
	}
	am.changed = make(map[string]struct{})
	sort.Strings(out)
	return out
}

func (am *AssetManager) Close() error {
	if am.fsnotify == nil || am.isClosed {
		return nil
	}
	am.isClosed = true
	close(am.done)
	return nil
}

func (am *AssetManager) start() {
	for {
		select {
		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			s, err := os.Stat(e.Name)
			if err == nil && s.IsDir() {
				if e.Op&fsnotify.Create != 0 {
					if err := am.walk(e.Name); err != nil {
						core.LogWarn("watching %s: %s", e.Name, err)
					}
				}
				continue
			}
			// Handle create or modify events
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				am.handleFileEvent(e.Name, true)
			}
			// fsnotify drops removed paths from the watch list itself
			if e.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				am.removeAsset(e.Name)
			}

		case err, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("asset watcher: %s", err)

		case <-am.done:
			am.fsnotify.Close()
			return
		}
	}
}

// walk indexes every file under path and adds its directories to the watch
// list when watching.
func (am *AssetManager) walk(path string) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			if am.fsnotify != nil {
				if am.isClosed {
					return ErrWatcherClosed
				}
				return am.fsnotify.Add(walkPath)
			}
			return nil
		}
		am.handleFileEvent(walkPath, false)
		return nil
	})
}

// Handle the creation or modification of a file
func (am *AssetManager) handleFileEvent(path string, changed bool) {
	assetType := determineAssetType(path)
	if assetType == resources.ResourceTypeNone {
		return
	}

	am.mutex.Lock()
	defer am.mutex.Unlock()
	info, exists := am.assets[path]
	if !exists {
		info = AssetInfo{Path: path, Type: assetType}
	}
	am.assets[path] = info
	if changed {
		am.changed[path] = struct{}{}
	}
}

// Remove the asset from the index if it was deleted
func (am *AssetManager) removeAsset(path string) {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	delete(am.assets, path)
	delete(am.changed, path)
}

func determineAssetType(path string) resources.ResourceType {
	switch filepath.Ext(path) {
	case ".wgsl", ".vert", ".frag", ".glsl":
		return resources.ResourceTypeShader
	case ".spv", ".bin":
		return resources.ResourceTypeBinary
	case ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp":
		return resources.ResourceTypeImage
	case ".fnt":
		return resources.ResourceTypeBitmapFont
	case ".toml":
		return resources.ResourceTypeConfig
	case ".txt":
		return resources.ResourceTypeText
	default:
		return resources.ResourceTypeNone
	}
}

// DecodeImage decodes PNG, JPEG, GIF, BMP, TIFF or WebP bytes into RGBA8.
func DecodeImage(data []byte) (*image.RGBA, error) {
	return loaders.DecodeImage(data, false)
}

func LoadImage(path string) (*image.RGBA, error) {
	data, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeImage(data)
}

func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading asset: %w", err)
	}
	return data, nil
}
