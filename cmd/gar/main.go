// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"errors"
	"flag"
	"fmt"
	"io/ioutil"
	"os"
	"os/user"
	"path/filepath"
	"time"

	"golang.org/x/exp/mmap"

	"github.com/devblok/garnet/utility/gar"
)

func init() {
	u, err := user.Current()
	if err != nil {
		currentUserName = "unknown"
		return
	}
	currentUserName = u.Name
}

var (
	currentUserName string
	author          = flag.String("author", "", "Set the author of the package when compressing, current user when empty")
	version         = flag.Int64("version", 1, "Archive version number to create it with")
	extract         = flag.String("e", "", "Extract the file given")
	compress        = flag.String("c", "", "Compress the given file/folder")
	list            = flag.Bool("l", false, "List the contents of the archive")
	dstFile         = flag.String("f", "out.gar", "Archive file to operate on")
	output          = flag.String("o", "", "Output path for extraction, file's base name when empty")
	silent          = flag.Bool("s", false, "Silent")
)

func main() {
	flag.Parse()

	requested := 0
	for _, set := range []bool{*compress != "", *extract != "", *list} {
		if set {
			requested++
		}
	}
	if requested > 1 {
		panic(errors.New("only one operation at a time"))
	}

	switch {
	case *compress != "":
		if err := compressFiles(); err != nil {
			panic(err)
		}
	case *extract != "":
		if err := extractFile(); err != nil {
			panic(err)
		}
	case *list:
		if err := listFiles(); err != nil {
			panic(err)
		}
	default:
		flag.PrintDefaults()
	}
}

func compressFiles() error {
	if _, err := os.Stat(*dstFile); err == nil {
		return errors.New("destination file exists, will not overwrite")
	}

	var filesToCompress []string
	err := filepath.Walk(*compress, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		filesToCompress = append(filesToCompress, path)
		return nil
	})
	if err != nil {
		return err
	}

	authorName := *author
	if authorName == "" {
		authorName = currentUserName
	}
	builder, err := gar.NewBuilder(gar.Header{
		Author:      authorName,
		DateCreated: time.Now().Unix(),
		Version:     *version,
	})
	if err != nil {
		return err
	}

	for _, ftc := range filesToCompress {
		if err := addFile(builder, ftc); err != nil {
			return err
		}
	}

	dst, err := os.Create(*dstFile)
	if err != nil {
		return err
	}
	defer dst.Close()
	written, err := builder.WriteTo(dst)
	if err != nil {
		return err
	}
	if !*silent {
		fmt.Printf("%s: %d files, %d bytes\n", *dstFile, len(filesToCompress), written)
	}
	return nil
}

func addFile(builder *gar.Builder, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return builder.Add(entryName(path), f)
}

// entryName strips the compression root from a walked path, so the
// archive index carries portable names.
func entryName(path string) string {
	rel, err := filepath.Rel(*compress, path)
	if err != nil || rel == "." {
		return filepath.ToSlash(filepath.Base(path))
	}
	return filepath.ToSlash(rel)
}

func extractFile() error {
	r, err := mmap.Open(*dstFile)
	if err != nil {
		return err
	}
	defer r.Close()

	ar, err := gar.Open(r)
	if err != nil {
		return err
	}
	data, err := ar.ReadAll(*extract)
	if err != nil {
		return err
	}

	out := *output
	if out == "" {
		out = filepath.Base(*extract)
	}
	if err := ioutil.WriteFile(out, data, 0644); err != nil {
		return err
	}
	if !*silent {
		fmt.Printf("%s: %d bytes\n", out, len(data))
	}
	return nil
}

func listFiles() error {
	r, err := mmap.Open(*dstFile)
	if err != nil {
		return err
	}
	defer r.Close()

	ar, err := gar.Open(r)
	if err != nil {
		return err
	}
	header := ar.Header()
	if !*silent {
		fmt.Printf("author: %s, version: %d, created: %s\n",
			header.Author, header.Version, time.Unix(header.DateCreated, 0).Format(time.RFC3339))
	}
	for _, entry := range ar.Index() {
		fmt.Printf("%s\t%d\t%d\n", entry.Name, entry.Size, entry.CompressedSize)
	}
	return nil
}
