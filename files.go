package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/skydrive-go/internal/skydrive"
)

func newLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls [path]",
		Short: "List files and folders",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDrive(cmd, func(ctx context.Context, d *skydrive.Drive) error {
				return listPath(ctx, cmd.OutOrStdout(), d, argOr(args, 0, "/"), flagJSON)
			})
		},
	}
}

func newTreeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tree [path]",
		Short: "Print a folder hierarchy",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			depth, _ := cmd.Flags().GetInt("depth")

			return withDrive(cmd, func(ctx context.Context, d *skydrive.Drive) error {
				return printTree(ctx, cmd.OutOrStdout(), d, argOr(args, 0, "/"), depth)
			})
		},
	}

	cmd.Flags().Int("depth", 0, "maximum depth to descend (0 = unlimited)")

	return cmd
}

func newCatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cat <path>",
		Short: "Print a file's contents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDrive(cmd, func(ctx context.Context, d *skydrive.Drive) error {
				return catFile(ctx, cmd.OutOrStdout(), d, args[0])
			})
		},
	}
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <remote-path> [local-path]",
		Short: "Download a file",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDrive(cmd, func(ctx context.Context, d *skydrive.Drive) error {
				return getFile(ctx, d, args[0], argOr(args, 1, ""))
			})
		},
	}
}

func newPutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "put <local-path> [remote-path]",
		Short: "Upload a file",
		Long: `Upload a local file. If remote-path is a folder the file keeps its local
name there; if it names an existing file that file is overwritten;
otherwise a new file is created at remote-path.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDrive(cmd, func(ctx context.Context, d *skydrive.Drive) error {
				return putFile(ctx, d, args[0], argOr(args, 1, "/"))
			})
		},
	}
}

func newMkdirCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mkdir <path>",
		Short: "Create a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parents, _ := cmd.Flags().GetBool("parents")
			description, _ := cmd.Flags().GetString("description")

			return withDrive(cmd, func(ctx context.Context, d *skydrive.Drive) error {
				return makeFolder(ctx, d, args[0], description, parents)
			})
		},
	}

	cmd.Flags().BoolP("parents", "p", false, "create missing parent folders")
	cmd.Flags().String("description", "", "folder description")

	return cmd
}

func newStatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stat <path>",
		Short: "Display file or folder metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDrive(cmd, func(ctx context.Context, d *skydrive.Drive) error {
				return statPath(ctx, cmd.OutOrStdout(), d, args[0], flagJSON)
			})
		},
	}
}

func newRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <path> <new-name>",
		Short: "Rename a file or folder in place",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDrive(cmd, func(ctx context.Context, d *skydrive.Drive) error {
				return renameItem(ctx, d, args[0], args[1])
			})
		},
	}
}

func newDescribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe <path> <description>",
		Short: "Set the description of a file or folder",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDrive(cmd, func(ctx context.Context, d *skydrive.Drive) error {
				return describeItem(ctx, d, args[0], args[1])
			})
		},
	}
}

// withDrive opens the drive and runs fn with it.
func withDrive(cmd *cobra.Command, fn func(ctx context.Context, d *skydrive.Drive) error) error {
	ctx := cmd.Context()

	d, _, err := openDrive(ctx)
	if err != nil {
		return err
	}

	return fn(ctx, d)
}

func argOr(args []string, i int, def string) string {
	if len(args) > i {
		return args[i]
	}

	return def
}

// itemOutput is the JSON schema for items in `ls --json` and `stat --json`.
type itemOutput struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Path        string     `json:"path"`
	Kind        string     `json:"kind"`
	Description string     `json:"description,omitempty"`
	Size        int64      `json:"size,omitempty"`
	Count       int        `json:"count,omitempty"`
	Created     *time.Time `json:"created,omitempty"`
	Modified    *time.Time `json:"modified,omitempty"`
}

func toItemOutput(n skydrive.Node) itemOutput {
	out := itemOutput{
		ID:          n.ID(),
		Name:        n.Name(),
		Path:        displayPath(n),
		Kind:        string(n.Kind()),
		Description: n.Description(),
	}

	switch v := n.(type) {
	case *skydrive.File:
		out.Size = v.Size()
	case *skydrive.Folder:
		out.Count = v.Count()
	}

	if t := n.Created(); !t.IsZero() {
		out.Created = &t
	}

	if t := n.Modified(); !t.IsZero() {
		out.Modified = &t
	}

	return out
}

// displayPath is FullName with "/" for the root.
func displayPath(n skydrive.Node) string {
	if p := n.FullName(); p != "" {
		return p
	}

	return "/"
}

func listPath(ctx context.Context, w io.Writer, d *skydrive.Drive, remotePath string, asJSON bool) error {
	n, err := d.Resolve(ctx, normalizeRemotePath(remotePath))
	if err != nil {
		return err
	}

	nodes := []skydrive.Node{n}

	if f, ok := n.(*skydrive.Folder); ok {
		if nodes, err = f.Children(ctx); err != nil {
			return err
		}
	}

	if asJSON {
		out := make([]itemOutput, 0, len(nodes))
		for _, c := range nodes {
			out = append(out, toItemOutput(c))
		}

		return printJSON(w, out)
	}

	rows := make([][]string, 0, len(nodes))

	for _, c := range nodes {
		name, size := c.Name(), "-"

		switch v := c.(type) {
		case *skydrive.Folder:
			name += "/"
		case *skydrive.File:
			size = formatSize(v.Size())
		}

		rows = append(rows, []string{name, size, formatTime(c.Modified())})
	}

	printTable(w, []string{"NAME", "SIZE", "MODIFIED"}, rows)

	return nil
}

func printTree(ctx context.Context, w io.Writer, d *skydrive.Drive, remotePath string, maxDepth int) error {
	root, err := d.Folder(ctx, normalizeRemotePath(remotePath))
	if err != nil {
		return err
	}

	fmt.Fprintln(w, displayPath(root))

	return printSubtree(ctx, w, root, "", 1, maxDepth)
}

func printSubtree(ctx context.Context, w io.Writer, f *skydrive.Folder, prefix string, depth, maxDepth int) error {
	if maxDepth > 0 && depth > maxDepth {
		return nil
	}

	children, err := f.Children(ctx)
	if err != nil {
		return err
	}

	for i, c := range children {
		branch, next := "├── ", "│   "
		if i == len(children)-1 {
			branch, next = "└── ", "    "
		}

		sub, isFolder := c.(*skydrive.Folder)

		name := c.Name()
		if isFolder {
			name += "/"
		}

		fmt.Fprintln(w, prefix+branch+name)

		if isFolder {
			if err := printSubtree(ctx, w, sub, prefix+next, depth+1, maxDepth); err != nil {
				return err
			}
		}
	}

	return nil
}

func catFile(ctx context.Context, w io.Writer, d *skydrive.Drive, remotePath string) error {
	f, err := d.File(ctx, normalizeRemotePath(remotePath))
	if err != nil {
		return err
	}

	data, err := f.ReadAllBytes(ctx)
	if err != nil {
		return err
	}

	_, err = w.Write(data)

	return err
}

func getFile(ctx context.Context, d *skydrive.Drive, remotePath, localPath string) error {
	f, err := d.File(ctx, normalizeRemotePath(remotePath))
	if err != nil {
		return err
	}

	if localPath == "" {
		localPath = f.Name()
	}

	if info, statErr := os.Stat(localPath); statErr == nil && info.IsDir() {
		localPath = filepath.Join(localPath, f.Name())
	}

	if err := f.Download(ctx, localPath); err != nil {
		return err
	}

	statusf(flagQuiet, "Downloaded %s to %s (%s)\n", f.FullName(), localPath, formatSize(f.Size()))

	return nil
}

func putFile(ctx context.Context, d *skydrive.Drive, localPath, remotePath string) error {
	remotePath = normalizeRemotePath(remotePath)

	n, err := d.Resolve(ctx, remotePath)

	switch {
	case err == nil:
		switch v := n.(type) {
		case *skydrive.Folder:
			f, err := v.UploadFile(ctx, localPath)
			if err != nil {
				return err
			}

			statusf(flagQuiet, "Uploaded %s to %s\n", localPath, f.FullName())
		case *skydrive.File:
			if err := v.Upload(ctx, localPath); err != nil {
				return err
			}

			statusf(flagQuiet, "Overwrote %s with %s\n", v.FullName(), localPath)
		}

		return nil
	case errors.Is(err, skydrive.ErrNotFound):
		parentPath, name := splitParentAndName(remotePath)

		parent, err := d.Folder(ctx, parentPath)
		if err != nil {
			return err
		}

		data, err := os.ReadFile(localPath)
		if err != nil {
			return fmt.Errorf("reading %s: %w", localPath, err)
		}

		f, err := parent.CreateFileBytes(ctx, name, data)
		if err != nil {
			return err
		}

		statusf(flagQuiet, "Uploaded %s to %s\n", localPath, f.FullName())

		return nil
	default:
		return err
	}
}

func makeFolder(ctx context.Context, d *skydrive.Drive, remotePath, description string, parents bool) error {
	remotePath = normalizeRemotePath(remotePath)
	parentPath, name := splitParentAndName(remotePath)

	if name == "" {
		return fmt.Errorf("mkdir: %q names the root", remotePath)
	}

	var (
		parent *skydrive.Folder
		err    error
	)

	if parents {
		parent, err = ensureFolder(ctx, d, parentPath)
	} else {
		parent, err = d.Folder(ctx, parentPath)
	}

	if err != nil {
		return err
	}

	f, err := parent.CreateFolder(ctx, name, description)
	if err != nil {
		return err
	}

	statusf(flagQuiet, "Created %s\n", f.FullName())

	return nil
}

// ensureFolder resolves remotePath, creating each missing folder on the way.
func ensureFolder(ctx context.Context, d *skydrive.Drive, remotePath string) (*skydrive.Folder, error) {
	current := d.Root()

	for _, seg := range strings.Split(strings.Trim(remotePath, "/"), "/") {
		if seg == "" {
			continue
		}

		next, err := d.Folder(ctx, strings.TrimSuffix(displayPath(current), "/")+"/"+seg)

		switch {
		case err == nil:
			current = next
		case errors.Is(err, skydrive.ErrNotFound):
			if current, err = current.CreateFolder(ctx, seg, ""); err != nil {
				return nil, err
			}

			// The cached listing predates the new folder.
			if err := current.Parent().Refresh(ctx); err != nil {
				return nil, err
			}
		default:
			return nil, err
		}
	}

	return current, nil
}

func statPath(ctx context.Context, w io.Writer, d *skydrive.Drive, remotePath string, asJSON bool) error {
	n, err := d.Resolve(ctx, normalizeRemotePath(remotePath))
	if err != nil {
		return err
	}

	out := toItemOutput(n)

	if asJSON {
		return printJSON(w, out)
	}

	fmt.Fprintf(w, "Path:        %s\n", out.Path)
	fmt.Fprintf(w, "ID:          %s\n", out.ID)
	fmt.Fprintf(w, "Kind:        %s\n", out.Kind)

	if out.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", out.Description)
	}

	switch v := n.(type) {
	case *skydrive.File:
		fmt.Fprintf(w, "Size:        %s (%s bytes)\n", formatSize(v.Size()), strconv.FormatInt(v.Size(), 10))
	case *skydrive.Folder:
		fmt.Fprintf(w, "Items:       %d\n", v.Count())
	}

	fmt.Fprintf(w, "Created:     %s\n", formatTime(n.Created()))
	fmt.Fprintf(w, "Modified:    %s\n", formatTime(n.Modified()))

	return nil
}

func renameItem(ctx context.Context, d *skydrive.Drive, remotePath, newName string) error {
	if newName == "" || strings.Contains(newName, "/") {
		return fmt.Errorf("rename: invalid name %q", newName)
	}

	n, err := d.Resolve(ctx, normalizeRemotePath(remotePath))
	if err != nil {
		return err
	}

	if n.Parent() == nil {
		return errors.New("rename: cannot rename the root")
	}

	old := n.FullName()

	if err := n.SetName(ctx, normalizeName(newName)); err != nil {
		return err
	}

	statusf(flagQuiet, "Renamed %s to %s\n", old, n.FullName())

	return nil
}

func describeItem(ctx context.Context, d *skydrive.Drive, remotePath, description string) error {
	n, err := d.Resolve(ctx, normalizeRemotePath(remotePath))
	if err != nil {
		return err
	}

	if err := n.SetDescription(ctx, description); err != nil {
		return err
	}

	statusf(flagQuiet, "Updated description of %s\n", displayPath(n))

	return nil
}
