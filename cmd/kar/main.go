// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Command kar packs, lists and extracts kar archives. With -library it
// packs a directory of compiled shaders into a shader library keyed by
// function name.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/devblok/korugfx/core"
	"github.com/devblok/korugfx/utility/kar"
	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/mmap"
)

func init() {
	currentUserName = "unknown"
	if u, err := user.Current(); err == nil && u.Name != "" {
		currentUserName = u.Name
	}
}

var (
	currentUserName string

	author   = flag.String("author", "", "Set the author of the package when compressing")
	version  = flag.Int64("version", 1, "Archive version number to create it with")
	extract  = flag.String("e", "", "Extract the file given")
	outDir   = flag.String("o", ".", "Directory to extract into")
	compress = flag.String("c", "", "Compress the given file/folder")
	library  = flag.String("library", "", "Pack the compiled shaders (name.vert.spv, name.frag.spv) of a folder as a shader library")
	list     = flag.Bool("l", false, "List the archive contents")
	dstFile  = flag.String("f", "out.kar", "Archive file")
	silent   = flag.Bool("s", false, "Silent")
)

func main() {
	flag.Parse()
	if *silent {
		log.SetLevel(log.WarnLevel)
	}
	if *author == "" {
		*author = currentUserName
	}

	ops := 0
	for _, set := range []bool{*extract != "", *compress != "", *library != "", *list} {
		if set {
			ops++
		}
	}
	if ops > 1 {
		log.Fatal("only one operation at a time")
	}

	header := kar.Header{
		Author:      *author,
		DateCreated: time.Now().Unix(),
		Version:     *version,
	}

	var err error
	switch {
	case *compress != "":
		err = compressFiles(*compress, *dstFile, header)
	case *library != "":
		err = packLibrary(*library, *dstFile, header)
	case *extract != "":
		err = extractFile(*dstFile, *extract, *outDir)
	case *list:
		err = listArchive(*dstFile, os.Stdout)
	default:
		flag.PrintDefaults()
		return
	}
	if err != nil {
		log.Fatal(err)
	}
}

// writeArchive creates dst, refusing to overwrite it.
func writeArchive(dst string, builder *kar.Builder) error {
	if _, err := os.Stat(dst); err == nil {
		return errors.New("destination file exists, will not overwrite")
	}
	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	n, err := builder.WriteTo(f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dst)
		return err
	}
	log.WithFields(log.Fields{"file": dst, "files": builder.Len(), "bytes": n}).Info("archive written")
	return nil
}

// compressFiles packs every file under src, named by its slash separated
// path relative to src.
func compressFiles(src, dst string, header kar.Header) error {
	builder := kar.NewBuilder(header)
	err := filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		name, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if name == "." {
			name = info.Name()
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		log.WithField("file", path).Debug("adding")
		return builder.Add(filepath.ToSlash(name), f)
	})
	if err != nil {
		return err
	}
	return writeArchive(dst, builder)
}

// packLibrary packs compiled shaders by function name, the layout the Vulkan
// backend reads program bundle libraries in.
func packLibrary(dir, dst string, header kar.Header) error {
	shaders, err := core.ShaderFilesFromDirectory(dir)
	if err != nil {
		return err
	}
	if len(shaders) == 0 {
		return fmt.Errorf("no compiled shaders in %s", dir)
	}
	builder := kar.NewBuilder(header)
	for _, s := range shaders {
		data, err := os.ReadFile(s.Path)
		if err != nil {
			return err
		}
		if err := builder.AddBytes(s.Function, data); err != nil {
			return fmt.Errorf("%s: %w", s.Path, err)
		}
		log.WithFields(log.Fields{"function": s.Function, "stage": s.Stage}).Debug("adding shader")
	}
	return writeArchive(dst, builder)
}

// openArchive memory maps the archive file.
func openArchive(path string) (*kar.Archive, io.Closer, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, nil, err
	}
	ar, err := kar.Open(r)
	if err != nil {
		r.Close()
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return ar, r, nil
}

func listArchive(path string, w io.Writer) error {
	ar, closer, err := openArchive(path)
	if err != nil {
		return err
	}
	defer closer.Close()

	h := ar.Header()
	fmt.Fprintf(w, "author: %s\nversion: %d\ncreated: %s\n\n",
		h.Author, h.Version, time.Unix(h.DateCreated, 0).UTC().Format(time.RFC3339))
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSIZE\tCOMPRESSED")
	for _, name := range ar.Names() {
		e, err := ar.Stat(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\n", e.Name, e.Size, e.CompressedSize)
	}
	return tw.Flush()
}

func extractFile(path, name, dir string) error {
	clean := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return fmt.Errorf("refusing to extract %q outside of %s", name, dir)
	}

	ar, closer, err := openArchive(path)
	if err != nil {
		return err
	}
	defer closer.Close()

	data, err := ar.ReadAll(name)
	if err != nil {
		return err
	}
	target := filepath.Join(dir, clean)
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(target, data, 0644); err != nil {
		return err
	}
	log.WithFields(log.Fields{"file": target, "bytes": len(data)}).Info("extracted")
	return nil
}
