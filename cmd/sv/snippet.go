package main

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/snipvault/snipvault/internal/record"
	"github.com/snipvault/snipvault/internal/store"
	"github.com/snipvault/snipvault/internal/tree"
	"github.com/snipvault/snipvault/internal/ui"
)

var addCmd = &cobra.Command{
	Use:     "add",
	GroupID: "snippets",
	Short:   "Add a folder or snippet",
}

var addFolderCmd = &cobra.Command{
	Use:   "folder <name>",
	Short: "Create a folder",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		st := openStore(cfg)

		var parentID *string
		if parent, _ := cmd.Flags().GetString("parent"); parent != "" {
			col, err := st.List()
			if err != nil {
				fatalf("%v", err)
			}
			p, err := resolveFolder(col, parent)
			if err != nil {
				fatalf("%v", err)
			}
			parentID = &p.ID
		}

		f, err := st.AddFolder(args[0], parentID)
		if err != nil {
			fatalf("%v", err)
		}
		fmt.Println(ui.Pass("Created folder %s %s", f.Name, ui.Dim(f.ID)))
	},
}

var addSnippetCmd = &cobra.Command{
	Use:   "snippet <folder> <name>",
	Short: "Create a snippet in a folder",
	Long: `Create a snippet in a folder.

The code body is read from --file, or from stdin when piped. Without
either, the snippet starts empty; use 'sv edit' to fill it in.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		st := openStore(cfg)

		col, err := st.List()
		if err != nil {
			fatalf("%v", err)
		}
		folder, err := resolveFolder(col, args[0])
		if err != nil {
			fatalf("%v", err)
		}

		sn, err := st.AddSnippet(args[1], folder.ID)
		if err != nil {
			fatalf("%v", err)
		}

		upd := store.SnippetUpdate{}
		changed := false
		if file, _ := cmd.Flags().GetString("file"); file != "" {
			data, err := os.ReadFile(file)
			if err != nil {
				fatalf("failed to read %s: %v", file, err)
			}
			code := string(data)
			upd.Code = &code
			changed = true
		} else if stat, _ := os.Stdin.Stat(); stat != nil && stat.Mode()&os.ModeCharDevice == 0 {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				fatalf("failed to read stdin: %v", err)
			}
			code := string(data)
			upd.Code = &code
			changed = true
		}
		if lang, _ := cmd.Flags().GetString("language"); lang != "" {
			upd.Language = &lang
			changed = true
		}
		if notes, _ := cmd.Flags().GetString("notes"); notes != "" {
			upd.Notes = &notes
			changed = true
		}
		if tags, _ := cmd.Flags().GetStringSlice("tags"); len(tags) > 0 {
			upd.Tags = &tags
			changed = true
		}
		if changed {
			if sn, err = st.UpdateSnippet(sn.ID, upd); err != nil {
				fatalf("%v", err)
			}
		}

		fmt.Println(ui.Pass("Created snippet %s in %s %s", sn.Name, folder.Name, ui.Dim(sn.ID)))
	},
}

var listCmd = &cobra.Command{
	Use:     "list [folder]",
	GroupID: "snippets",
	Short:   "Show the folder tree with snippets",
	Args:    cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		st := openStore(cfg)

		col, err := st.List()
		if err != nil {
			fatalf("%v", err)
		}
		t := tree.Build(col)

		if len(args) == 1 {
			f, err := resolveFolder(col, args[0])
			if err != nil {
				fatalf("%v", err)
			}
			sub := record.Collection{Folders: []record.Folder{f}, Snippets: nil}
			for _, d := range t.Descendants(f.ID) {
				sub.Folders = append(sub.Folders, d)
			}
			ids := make(map[string]bool, len(sub.Folders))
			for _, sf := range sub.Folders {
				ids[sf.ID] = true
			}
			for _, s := range col.Snippets {
				if ids[s.FolderID] {
					sub.Snippets = append(sub.Snippets, s)
				}
			}
			// Detach the subtree root so it renders at top level.
			sub.Folders[0].ParentID = nil
			t = tree.Build(sub)
		}

		fmt.Print(ui.RenderTree(t))
	},
}

var showCmd = &cobra.Command{
	Use:     "show <snippet>",
	GroupID: "snippets",
	Short:   "Print one snippet with its metadata",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		st := openStore(cfg)

		col, err := st.List()
		if err != nil {
			fatalf("%v", err)
		}
		sn, err := resolveSnippet(col, args[0])
		if err != nil {
			fatalf("%v", err)
		}

		if raw, _ := cmd.Flags().GetBool("raw"); raw {
			fmt.Print(sn.Code)
			return
		}

		folderName := "(none)"
		if f, ok := col.FolderByID(sn.FolderID); ok {
			folderName = f.Name
		}
		fmt.Printf("%s  %s\n", sn.Name, ui.Dim(sn.ID))
		fmt.Printf("Folder:   %s\n", folderName)
		fmt.Printf("Language: %s\n", sn.Language)
		if len(sn.Tags) > 0 {
			fmt.Printf("Tags:     %v\n", sn.Tags)
		}
		if sn.Notes != "" {
			fmt.Printf("Notes:    %s\n", sn.Notes)
		}
		fmt.Printf("Modified: %s\n", ui.Dim(time.UnixMilli(sn.LastModified).Format(time.RFC3339)))
		fmt.Println()
		fmt.Println(sn.Code)
	},
}

var editCmd = &cobra.Command{
	Use:     "edit <snippet>",
	GroupID: "snippets",
	Short:   "Edit a snippet's code in $EDITOR",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		st := openStore(cfg)

		col, err := st.List()
		if err != nil {
			fatalf("%v", err)
		}
		sn, err := resolveSnippet(col, args[0])
		if err != nil {
			fatalf("%v", err)
		}

		upd := store.SnippetUpdate{}
		changed := false
		if name, _ := cmd.Flags().GetString("name"); name != "" {
			upd.Name = &name
			changed = true
		}
		if lang, _ := cmd.Flags().GetString("language"); lang != "" {
			upd.Language = &lang
			changed = true
		}
		if notes, _ := cmd.Flags().GetString("notes"); cmd.Flags().Changed("notes") {
			upd.Notes = &notes
			changed = true
		}
		if tags, _ := cmd.Flags().GetStringSlice("tags"); cmd.Flags().Changed("tags") {
			upd.Tags = &tags
			changed = true
		}

		if !changed {
			code, err := editInEditor(sn)
			if err != nil {
				fatalf("%v", err)
			}
			if code == sn.Code {
				fmt.Println(ui.Warn("No changes"))
				return
			}
			upd.Code = &code
		}

		if _, err := st.UpdateSnippet(sn.ID, upd); err != nil {
			fatalf("%v", err)
		}
		fmt.Println(ui.Pass("Updated %s", sn.Name))
	},
}

// editInEditor round-trips the code body through the user's editor.
func editInEditor(sn record.Snippet) (string, error) {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}

	tmp := filepath.Join(os.TempDir(), "sv-edit-"+ui.ShortID(sn.ID)+".txt")
	if err := os.WriteFile(tmp, []byte(sn.Code), 0600); err != nil {
		return "", fmt.Errorf("failed to stage edit file: %w", err)
	}
	defer os.Remove(tmp)

	c := exec.Command(editor, tmp)
	c.Stdin, c.Stdout, c.Stderr = os.Stdin, os.Stdout, os.Stderr
	if err := c.Run(); err != nil {
		return "", fmt.Errorf("editor failed: %w", err)
	}

	data, err := os.ReadFile(tmp)
	if err != nil {
		return "", fmt.Errorf("failed to read edited file: %w", err)
	}
	return string(data), nil
}

var mvCmd = &cobra.Command{
	Use:     "mv <folder|snippet> <new-parent-folder>",
	GroupID: "snippets",
	Short:   "Move a folder or snippet into another folder",
	Long: `Move a folder or snippet into another folder.

Moving a folder into its own descendant is rejected. Use "-" as the
destination to move a folder to the top level.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		st := openStore(cfg)

		col, err := st.List()
		if err != nil {
			fatalf("%v", err)
		}

		var dest *record.Folder
		if args[1] != "-" {
			d, err := resolveFolder(col, args[1])
			if err != nil {
				fatalf("%v", err)
			}
			dest = &d
		}

		if sn, err := resolveSnippet(col, args[0]); err == nil {
			if dest == nil {
				fatalf("snippets always live in a folder")
			}
			if _, err := st.MoveSnippet(sn.ID, dest.ID); err != nil {
				fatalf("%v", err)
			}
			fmt.Println(ui.Pass("Moved %s into %s", sn.Name, dest.Name))
			return
		}

		f, err := resolveFolder(col, args[0])
		if err != nil {
			fatalf("%v", err)
		}
		var parentID *string
		destName := "top level"
		if dest != nil {
			parentID = &dest.ID
			destName = dest.Name
		}
		if _, err := st.MoveFolder(f.ID, parentID); err != nil {
			fatalf("%v", err)
		}
		fmt.Println(ui.Pass("Moved %s into %s", f.Name, destName))
	},
}

var rmCmd = &cobra.Command{
	Use:     "rm <folder|snippet>",
	GroupID: "snippets",
	Short:   "Delete a snippet, or a folder and its entire subtree",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		st := openStore(cfg)

		col, err := st.List()
		if err != nil {
			fatalf("%v", err)
		}

		if sn, err := resolveSnippet(col, args[0]); err == nil {
			if err := st.DeleteSnippet(sn.ID); err != nil {
				fatalf("%v", err)
			}
			fmt.Println(ui.Pass("Deleted snippet %s", sn.Name))
			return
		}

		f, err := resolveFolder(col, args[0])
		if err != nil {
			fatalf("%v", err)
		}

		// Deepest-first, so every folder's snippets cascade before its
		// parent goes.
		t := tree.Build(col)
		removed := 0
		for _, d := range t.Descendants(f.ID) {
			if err := st.DeleteFolder(d.ID); err != nil {
				fatalf("%v", err)
			}
			removed++
		}
		if err := st.DeleteFolder(f.ID); err != nil {
			fatalf("%v", err)
		}
		fmt.Println(ui.Pass("Deleted folder %s and %d subfolder(s)", f.Name, removed))
	},
}

var searchCmd = &cobra.Command{
	Use:     "search <terms...>",
	GroupID: "snippets",
	Short:   "Search snippets and folders",
	Long: `Search snippets and folders.

Every term must match (AND); within a snippet a term may match the
name, notes, code, or tags. Folders match on name only.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		st := openStore(cfg)

		col, err := st.List()
		if err != nil {
			fatalf("%v", err)
		}

		res := tree.Search(col, strings.Join(args, " "))

		for _, f := range res.Folders {
			fmt.Printf("%s/  %s\n", f.Name, ui.Dim(ui.ShortID(f.ID)))
		}
		for _, h := range res.Hits {
			fmt.Printf("%s  %s  %s\n", h.Snippet.Name, ui.Accent(h.FolderName), ui.Dim(ui.ShortID(h.Snippet.ID)))
		}
		if len(res.Folders)+len(res.Hits) == 0 {
			fmt.Println(ui.Warn("No matches"))
		}
	},
}

func init() {
	addFolderCmd.Flags().StringP("parent", "p", "", "Parent folder (name or id)")

	addSnippetCmd.Flags().StringP("file", "f", "", "Read the code body from a file")
	addSnippetCmd.Flags().StringP("language", "l", "", "Language (default: plaintext)")
	addSnippetCmd.Flags().StringP("notes", "n", "", "Notes")
	addSnippetCmd.Flags().StringSliceP("tags", "t", nil, "Tags (comma-separated)")

	editCmd.Flags().String("name", "", "Rename the snippet")
	editCmd.Flags().StringP("language", "l", "", "Change the language")
	editCmd.Flags().StringP("notes", "n", "", "Replace the notes")
	editCmd.Flags().StringSliceP("tags", "t", nil, "Replace the tags")

	showCmd.Flags().Bool("raw", false, "Print only the code body")

	addCmd.AddCommand(addFolderCmd, addSnippetCmd)
	rootCmd.AddCommand(addCmd, listCmd, showCmd, editCmd, mvCmd, rmCmd, searchCmd)
}
