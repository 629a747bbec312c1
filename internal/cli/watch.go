package cli

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	emuerrors "github.com/ngdevkit/emudbg/internal/errors"
)

// ConfigWatcher reloads a config file whenever it changes on disk.
type ConfigWatcher struct {
	w    *fsnotify.Watcher
	path string
	load func(string) (*Config, error)
	upC  chan *Config
	erC  chan error
	done chan struct{}
}

// WatchConfig watches path and hands every successfully loaded revision to
// Updates. The parent directory is watched so that editors replacing the
// file by rename are noticed.
func WatchConfig(path string, load func(string) (*Config, error)) (*ConfigWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, emuerrors.ConfigFile(path, "watch", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, emuerrors.ConfigFile(path, "watch", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, emuerrors.ConfigFile(path, "watch", err)
	}
	cw := &ConfigWatcher{
		w:    w,
		path: abs,
		load: load,
		upC:  make(chan *Config, 1),
		erC:  make(chan error, 1),
		done: make(chan struct{}),
	}
	go cw.loop()
	return cw, nil
}

func (cw *ConfigWatcher) loop() {
	defer close(cw.done)
	for {
		select {
		case ev, ok := <-cw.w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != cw.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			cfg, err := cw.load(cw.path)
			if err != nil {
				cw.pushErr(err)
				continue
			}
			if err := cfg.Validate(); err != nil {
				cw.pushErr(err)
				continue
			}
			cw.push(cfg)
		case err, ok := <-cw.w.Errors:
			if !ok {
				return
			}
			cw.pushErr(emuerrors.ConfigFile(cw.path, "watch", err))
		}
	}
}

// push keeps only the newest revision queued
func (cw *ConfigWatcher) push(cfg *Config) {
	for {
		select {
		case cw.upC <- cfg:
			return
		default:
		}
		select {
		case <-cw.upC:
		default:
		}
	}
}

func (cw *ConfigWatcher) pushErr(err error) {
	select {
	case cw.erC <- err:
	default:
	}
}

func (cw *ConfigWatcher) Updates() <-chan *Config { return cw.upC }
func (cw *ConfigWatcher) Errors() <-chan error    { return cw.erC }

// Close stops watching and waits for the event loop to finish.
func (cw *ConfigWatcher) Close() error {
	err := cw.w.Close()
	<-cw.done
	return err
}
