package main

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/Neumenon/aa/source"
)

// watch converts file to output now and again after every change, until
// the app context is cancelled. Conversion errors are logged and the
// previous output is left in place.
func (a *app) watch(conv *converter, file, output string) error {
	target, err := filepath.Abs(file)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer func() {
		_ = w.Close()
	}()

	// Editors often replace a file by renaming over it, which drops a
	// watch on the file itself; watch its directory instead.
	if err := w.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", file, err)
	}

	log := conv.log.With().Str("watch", file).Logger()
	var last *source.Document
	update := func() {
		doc, err := conv.load(file, nil)
		if err != nil {
			log.Error().Err(err).Msg("load failed")
			return
		}
		if source.SameContent(doc, last) {
			log.Debug().Msg("content unchanged")
			return
		}
		if err := conv.convertToFile(doc, output); err != nil {
			log.Error().Err(err).Msg("conversion failed")
			return
		}
		last = doc
		log.Info().Str("output", output).Msg("updated")
	}

	update()
	for {
		select {
		case <-a.ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			name, err := filepath.Abs(ev.Name)
			if err != nil || name != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				update()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("watch error")
		}
	}
}
