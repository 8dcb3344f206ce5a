package main

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newFilesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "files",
		Short: "List files held by the relay",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			ctx, cancel := opts.context(cmd)
			defer cancel()
			files, err := c.ListFiles(ctx)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(files) == 0 {
				printf(w, "No files available\n")
				return nil
			}
			ids := make([]string, 0, len(files))
			for id := range files {
				ids = append(ids, id)
			}
			sort.Slice(ids, func(i, j int) bool { return files[ids[i]].CreatedAt.Before(files[ids[j]].CreatedAt) })
			for _, id := range ids {
				f := files[id]
				printf(w, "%s  %-30s %10s  %s\n", id, f.Filename, humanize.IBytes(uint64(f.Size)), humanize.Time(f.CreatedAt))
			}
			return nil
		},
	}
}

func newUploadCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <path>",
		Short: "Upload a local file to the relay",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			ctx, cancel := opts.context(cmd)
			defer cancel()
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			up, err := c.UploadFile(ctx, filepath.Base(args[0]), f)
			if err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "File uploaded successfully. File ID: %s (%s, %s)\n", up.ID, up.Filename, humanize.IBytes(uint64(up.Size)))
			return nil
		},
	}
}

func newDownloadCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "download <file-id> [destination]",
		Short: "Download a file from the relay",
		Long:  "Download a file. The destination defaults to the current directory; when it is a directory the original filename is kept.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			ctx, cancel := opts.context(cmd)
			defer cancel()

			dest := "."
			if len(args) == 2 {
				dest = args[1]
			}
			dir, target := dest, ""
			if st, err := os.Stat(dest); err != nil || !st.IsDir() {
				dir, target = filepath.Dir(dest), dest
			}
			tmp, err := os.CreateTemp(dir, ".relayctl-*")
			if err != nil {
				return err
			}
			defer os.Remove(tmp.Name())

			dl, err := c.DownloadFile(ctx, args[0], tmp)
			if cerr := tmp.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}
			if target == "" {
				name := filepath.Base(dl.Filename)
				if name == "." || name == string(filepath.Separator) {
					name = "file_" + args[0]
				}
				target = filepath.Join(dir, name)
			}
			if err := os.Rename(tmp.Name(), target); err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "File downloaded to %s (%s)\n", target, humanize.IBytes(uint64(dl.Size)))
			return nil
		},
	}
}
