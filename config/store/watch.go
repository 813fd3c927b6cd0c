/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package store

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	liberr "github.com/ashforge/netcore/errors"
	"github.com/ashforge/netcore/logger"
	loglvl "github.com/ashforge/netcore/logger/level"
	"github.com/ashforge/netcore/runner/startStop"
)

const (
	// ErrWatchFailed fires when the underlying fsnotify watcher cannot
	// be created or cannot watch the store's directory.
	ErrWatchFailed liberr.CodeError = 6203

	// reloadDebounce matches the ~500ms reload debounce.
	reloadDebounce = 500 * time.Millisecond
)

// Watcher reloads a Store whenever its backing file changes on disk,
// debounced so a burst of writes (e.g. an editor's save-via-rename)
// triggers one Reload, not several.
type Watcher struct {
	store *Store
	log   logger.Logger

	watcher *fsnotify.Watcher
	run     startStop.StartStop
}

// NewWatcher builds a Watcher for s. The filesystem watch does not
// start until Start is called.
func NewWatcher(s *Store, log logger.Logger) (*Watcher, liberr.Error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, ErrWatchFailed.Error(err)
	}

	if err = fw.Add(filepath.Dir(s.path)); err != nil {
		_ = fw.Close()
		return nil, ErrWatchFailed.Error(err)
	}

	w := &Watcher{store: s, log: log, watcher: fw}
	w.run = startStop.New(w.watchStart, w.watchStop)
	return w, nil
}

// Start launches the background watch goroutine.
func (w *Watcher) Start(ctx context.Context) liberr.Error {
	if err := w.run.Start(ctx); err != nil {
		return liberr.UnknownError.Error(err)
	}
	return nil
}

// Stop closes the filesystem watch and waits for the goroutine to exit.
func (w *Watcher) Stop(ctx context.Context) liberr.Error {
	if err := w.run.Stop(ctx); err != nil {
		return liberr.UnknownError.Error(err)
	}
	return nil
}

func (w *Watcher) logEntry(lvl loglvl.Level, msg string) {
	if w.log == nil {
		return
	}
	w.log.Entry(lvl, msg).FieldAdd("path", w.store.path).Log()
}

func (w *Watcher) watchStart(ctx context.Context) error {
	var timer *time.Timer
	var timerC <-chan time.Time

	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	name := filepath.Base(w.store.path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != name {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDebounce)
			} else {
				if !timer.Stop() {
					<-timer.C
				}
				timer.Reset(reloadDebounce)
			}
			timerC = timer.C

		case <-timerC:
			if err := w.store.Reload(); err != nil {
				w.logEntry(loglvl.ErrorLevel, "config store reload failed: "+err.Error())
			} else {
				w.logEntry(loglvl.InfoLevel, "config store reloaded")
			}
			timerC = nil

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logEntry(loglvl.ErrorLevel, "config store watch error: "+err.Error())
		}
	}
}

func (w *Watcher) watchStop(context.Context) error {
	return w.watcher.Close()
}
