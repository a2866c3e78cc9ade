package main

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"sort"
	"sync"
	"time"

	stream "go.atomizer.io/stream"
	"go.structs.dev/gen"
)

// listExts are the files picked up when a source points at a directory.
var listExts = []string{".txt", ".list", ".hosts"}

// File is the content of one list file.
type File struct {
	Path string
	Data []byte
	Err  error
}

// ReadFiles reads the files at the paths provided and returns a channel
// where it deposits their content. A file that cannot be read is still
// delivered with Err set.
func ReadFiles(
	ctx context.Context,
	files <-chan string,
) (<-chan File, error) {
	s := stream.Scaler[string, File]{
		Wait: time.Nanosecond,
		Life: time.Millisecond,
		Fn: func(
			ctx context.Context,
			path string,
		) (File, bool) {
			data, err := os.ReadFile(path)
			return File{Path: path, Data: data, Err: err}, true
		},
	}

	return s.Exec(ctx, files)
}

// ReadDirectory recursively reads through the directory structure
// providing a channel of file paths.
func ReadDirectory(
	ctx context.Context,
	dir string,
	exts ...string,
) <-chan string {
	out := make(chan string)

	go func() {
		defer close(out)

		files, err := os.ReadDir(dir)
		if err != nil {
			return
		}

		wg := sync.WaitGroup{}
		for _, file := range files {
			if !file.IsDir() {
				if len(exts) > 0 {
					if !gen.Has(exts, filepath.Ext(file.Name())) {
						continue
					}
				}

				select {
				case <-ctx.Done():
					return
				case out <- path.Join(dir, file.Name()):
				}

				continue
			}

			wg.Add(1)
			go func(name string) {
				defer wg.Done()

				stream.Pipe(
					ctx,
					ReadDirectory(
						ctx,
						path.Join(dir, name),
						exts...,
					),
					out,
				)
			}(file.Name())
		}

		wg.Wait()
	}()

	return out
}

// ReadTree reads every list file below dir. Files come back ordered by
// path so a directory source always yields its lines in the same order.
func ReadTree(ctx context.Context, dir string) ([]File, error) {
	in, err := ReadFiles(ctx, ReadDirectory(ctx, dir, listExts...))
	if err != nil {
		return nil, err
	}

	files := []File{}
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case f, ok := <-in:
			if !ok {
				sort.Slice(files, func(i, j int) bool {
					return files[i].Path < files[j].Path
				})

				return files, nil
			}

			files = append(files, f)
		}
	}
}
