package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/forensicmatt/usnjrnl"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	parseSource  string
	parseMft     string
	parseThreads int
	parseRaw     bool
)

func newParseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Parse a $UsnJrnl:$J file (or a directory of them) and print one JSON record per line",
		RunE:  runParse,
	}

	flags := cmd.Flags()
	flags.StringVarP(&parseSource, "source", "s", "", "File to parse, or a directory to recurse looking for files ending in $J (required)")
	flags.StringVarP(&parseMft, "mft", "m", "", "MFT file to build a folder mapping from; forces --threads=1")
	flags.IntVarP(&parseThreads, "threads", "t", 0, "Worker count; 0 uses the number of available CPUs")
	flags.BoolVar(&parseRaw, "raw-flags", false, "Render reason/source_info/file_attributes as raw integers instead of symbolic names")
	cmd.MarkFlagRequired("source")

	return cmd
}

func runParse(cmd *cobra.Command, args []string) error {
	log, err := newLogger()
	if err != nil {
		return err
	}

	info, err := os.Stat(parseSource)
	if err != nil {
		return fmt.Errorf("source %s: %w", parseSource, err)
	}

	var files []string
	if info.IsDir() {
		files, err = findJournalFiles(parseSource)
		if err != nil {
			return err
		}
	} else {
		files = []string{parseSource}
	}

	threads := parseThreads
	if threads <= 0 {
		threads = runtime.GOMAXPROCS(0)
	}

	var mapping *usnjrnl.FolderMapping
	if parseMft != "" {
		if threads != 1 {
			fmt.Fprintln(os.Stderr, "when using --mft to create a folder mapping, threads can only be 1")
			threads = 1
		}
		mapping, err = buildFolderMapping(parseMft, log)
		if err != nil {
			return fmt.Errorf("building folder mapping: %w", err)
		}
	}

	cfg := usnjrnl.SerializeConfig{RawFlags: parseRaw}

	for _, file := range files {
		log.WithField("source", file).Info("processing")
		if err := processFile(cmd, file, threads, mapping, cfg, log); err != nil {
			fmt.Fprintf(os.Stderr, "error processing %s: %v\n", file, err)
		}
	}
	return nil
}

func findJournalFiles(root string) ([]string, error) {
	var matches []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(strings.ToLower(path), "$j") {
			matches = append(matches, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

func buildFolderMapping(mftPath string, log *logrus.Logger) (*usnjrnl.FolderMapping, error) {
	f, err := os.Open(mftPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	mapping := usnjrnl.NewFolderMapping()
	src := usnjrnl.NewMftFileReader(f)
	if err := mapping.BuildFromMft(src, log); err != nil {
		return nil, err
	}
	return mapping, nil
}

func processFile(cmd *cobra.Command, path string, threads int, mapping *usnjrnl.FolderMapping, cfg usnjrnl.SerializeConfig, log *logrus.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	chunks, err := usnjrnl.NewChunkReader(path, f)
	if err != nil {
		return err
	}
	parser := usnjrnl.NewParser(chunks, threads, log)

	out := cmd.OutOrStdout()
	ctx := context.Background()

	if mapping == nil {
		return parser.Each(ctx, func(entry usnjrnl.UsnEntry) error {
			return printEntry(out, entry, cfg)
		})
	}

	// Folder-mapping annotation must walk newest-to-oldest: deletes and
	// old-name renames would otherwise erase the very name needed to
	// describe their own event, so the mapping is updated from each
	// record before it's consulted, in reverse emission order.
	entries, err := parser.All(ctx)
	if err != nil {
		return err
	}
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}

	for _, entry := range entries {
		annotateOffline(mapping, &entry)
		if err := printEntry(out, entry, cfg); err != nil {
			return err
		}
	}
	return nil
}

func annotateOffline(mapping *usnjrnl.FolderMapping, entry *usnjrnl.UsnEntry) {
	ref := entry.Record.FileReference()
	parent := entry.Record.ParentReference()
	name := entry.Record.FileName()
	reason := entry.Record.Reason()

	if entry.Record.FileAttributes().Has(usnjrnl.FileAttributeDirectory) {
		if reason.Has(usnjrnl.ReasonFileDelete) || reason.Has(usnjrnl.ReasonRenameOldName) {
			mapping.AddMapping(ref, name, parent)
		}
	}

	full := mapping.EnumeratePath(parent)
	entry.Meta.FullPath = full + "/" + name
}

func printEntry(out io.Writer, entry usnjrnl.UsnEntry, cfg usnjrnl.SerializeConfig) error {
	line, err := usnjrnl.EncodeEntry(entry, cfg)
	if err != nil {
		return err
	}
	_, err = out.Write(append(line, '\n'))
	return err
}
