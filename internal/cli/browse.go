package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/driveman/driveman/internal/config"
	"github.com/driveman/driveman/internal/events"
	"github.com/driveman/driveman/internal/localfs"
	"github.com/driveman/driveman/internal/models"
	"github.com/driveman/driveman/internal/ops"
	"github.com/driveman/driveman/internal/progress"
	"github.com/driveman/driveman/internal/services"
	"github.com/driveman/driveman/internal/state"
	"github.com/driveman/driveman/internal/util/format"
	"github.com/driveman/driveman/internal/util/paths"
)

const browseHelp = `  ls              list the current folder
  lls [path]      list a local directory (for picking uploads)
  cd <n|id|name>  enter a folder by row number, ID or title
  back            return to the previous folder
  home            jump to the root folder
  pwd             show the path from root
  info <n|id>     show details for an entry
  up <paths...>   upload files into the current folder
  del <n|id|name> delete an entry
  mkdir <name>    create a folder here
  refresh         reload the current folder
  quit            leave the browser`

// newBrowseCmd starts the interactive folder browser.
func newBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse folders interactively",
		Long:  "Walk the remote folder tree in a small shell. Commands:\n\n" + browseHelp,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			storage, err := getStorage()
			if err != nil {
				return err
			}
			settings, _, err := loadSettings()
			if err != nil {
				return err
			}
			return runBrowser(GetContext(), storage, settings, os.Stdin)
		},
	}
}

// browser holds one interactive session: where we are, what is listed
// there, and the bus their changes publish on. Operations started from the
// shell reload the listing afterwards when auto_refresh is on, the same
// loop the original desktop app ran against its visible list.
type browser struct {
	storage  *services.DriveStorage
	settings *config.Settings
	bus      *events.EventBus
	nav      *state.Navigation
	list     *state.FileList
	scanner  *bufio.Scanner
}

func runBrowser(ctx context.Context, storage *services.DriveStorage, settings *config.Settings, input io.Reader) error {
	bus := events.NewEventBus(0)
	defer bus.Close()

	b := &browser{
		storage:  storage,
		settings: settings,
		bus:      bus,
		nav:      state.NewNavigation(bus),
		list:     state.NewFileList(bus),
		scanner:  bufio.NewScanner(input),
	}

	// Navigation and listing changes stream onto the bus; surface them as
	// debug lines so --debug shows every transition.
	go func() {
		for ev := range bus.SubscribeAll() {
			logger.Debugf("state event: %s", ev.Type())
		}
	}()

	if err := b.load(ctx); err != nil {
		return err
	}
	b.render()

	for ctx.Err() == nil {
		fmt.Printf("driveman:%s> ", b.nav.CurrentName())
		if !b.scanner.Scan() {
			fmt.Println()
			return b.scanner.Err()
		}

		fields := strings.Fields(b.scanner.Text())
		if len(fields) == 0 {
			continue
		}
		name, args := fields[0], fields[1:]

		switch name {
		case "quit", "exit", "q":
			return nil
		}
		if err := b.dispatch(ctx, name, args); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			fmt.Printf("Error: %v\n", err)
		}
	}
	return nil
}

func (b *browser) dispatch(ctx context.Context, name string, args []string) error {
	switch name {
	case "ls":
		b.render()
	case "lls":
		dir := "."
		if len(args) > 1 {
			return errors.New("usage: lls [path]")
		}
		if len(args) == 1 {
			dir = args[0]
		}
		return b.localList(dir)
	case "cd":
		if len(args) != 1 {
			return errors.New("usage: cd <n|id|name>")
		}
		return b.enter(ctx, args[0])
	case "back":
		if !b.nav.GoBack() {
			fmt.Println("Already at root")
			return nil
		}
		return b.reload(ctx)
	case "home":
		b.nav.GoHome()
		return b.reload(ctx)
	case "pwd":
		b.printTrail()
	case "refresh":
		return b.reload(ctx)
	case "info":
		if len(args) != 1 {
			return errors.New("usage: info <n|id>")
		}
		entry, err := b.resolve(args[0])
		if err != nil {
			return err
		}
		printEntryDetails(entry)
	case "up":
		if len(args) == 0 {
			return errors.New("usage: up <paths...>")
		}
		return b.upload(ctx, args)
	case "del":
		if len(args) != 1 {
			return errors.New("usage: del <n|id|name>")
		}
		return b.delete(ctx, args[0])
	case "mkdir":
		if len(args) == 0 {
			return errors.New("usage: mkdir <name>")
		}
		return b.mkdir(ctx, strings.Join(args, " "))
	case "help", "?":
		fmt.Println(browseHelp)
	default:
		return fmt.Errorf("unknown command %q (try help)", name)
	}
	return nil
}

// enter descends into a folder from the current listing and loads it.
// Navigation moves even if the load then fails; back still works.
func (b *browser) enter(ctx context.Context, arg string) error {
	entry, err := b.resolve(arg)
	if err != nil {
		return err
	}
	if !entry.IsFolder() {
		return fmt.Errorf("%s is a file; cd only enters folders", entry.Title)
	}
	b.nav.NavigateInto(entry.ID, entry.Title)
	return b.reload(ctx)
}

func (b *browser) reload(ctx context.Context) error {
	if err := b.load(ctx); err != nil {
		return err
	}
	b.render()
	return nil
}

func (b *browser) load(ctx context.Context) error {
	id, name := b.nav.CurrentID(), b.nav.CurrentName()

	b.list.SetLoading(true)
	entries, err := b.storage.ListChildren(ctx, id)
	b.list.SetLoading(false)
	if err != nil {
		b.list.SetError(err)
		return fmt.Errorf("failed to list %s: %w", name, err)
	}

	b.list.SetEntries(id, name, entries)
	return nil
}

// upload sends local files into the current folder through the same
// runner machinery the one-shot commands use.
func (b *browser) upload(ctx context.Context, patterns []string) error {
	paths, err := expandGlobPatterns(patterns)
	if err != nil {
		return err
	}

	items := make([]ops.Item, 0, len(paths))
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("cannot upload %s: %w", path, err)
		}
		if info.IsDir() {
			return fmt.Errorf("%s is a directory; use 'driveman upload -r' for trees", path)
		}
		items = append(items, ops.Item{ID: path, Name: filepath.Base(path), Size: info.Size()})
	}

	b.storage.SetReporter(progress.NewCLIReporter())
	destID := b.nav.CurrentID()

	opBus := events.NewEventBus(0)
	op := ops.NewOperation(ops.KindUpload, batchName(items, "files"), len(items), opBus)
	runner := ops.NewRunner(op, "Uploading", items, func(ctx context.Context, item ops.Item) error {
		_, err := b.storage.Upload(ctx, item.ID, destID)
		return err
	})
	b.installRefresh(ctx, runner)

	res := runBatch(ctx, opBus, op, runner, os.Stderr, false)
	if line := summaryLine(res, "uploaded", "file"); line != "" {
		fmt.Println(line)
	}
	return batchError(res, "upload")
}

// delete removes one entry, with the same confirmation gate as rm.
func (b *browser) delete(ctx context.Context, arg string) error {
	entry, err := b.resolve(arg)
	if err != nil {
		return err
	}
	if b.settings.ConfirmOperations && !b.confirm(entry.Title) {
		fmt.Println("Deletion cancelled")
		return nil
	}

	items := []ops.Item{{ID: entry.ID, Name: entry.Title, Size: entry.Size}}
	opBus := events.NewEventBus(0)
	op := ops.NewOperation(ops.KindDelete, entry.Title, 1, opBus)
	runner := ops.NewRunner(op, "Deleting", items, func(ctx context.Context, item ops.Item) error {
		return b.storage.Delete(ctx, item.ID)
	})
	b.installRefresh(ctx, runner)

	res := runBatch(ctx, opBus, op, runner, os.Stderr, false)
	if line := summaryLine(res, "deleted", "item"); line != "" {
		fmt.Println(line)
	}
	return batchError(res, "deletion")
}

func (b *browser) mkdir(ctx context.Context, name string) error {
	id, err := b.storage.CreateFolder(ctx, name, b.nav.CurrentID())
	if err != nil {
		return err
	}
	fmt.Printf("Created folder %q (%s)\n", strings.TrimSpace(name), id)
	if b.settings.AutoRefresh {
		return b.reload(ctx)
	}
	return nil
}

// localList shows a local directory so upload sources can be picked without
// leaving the shell. Hidden entries stay out, same as recursive upload.
func (b *browser) localList(dir string) error {
	abs, err := paths.ResolveAbsolute(dir)
	if err != nil {
		return fmt.Errorf("cannot resolve %s: %w", dir, err)
	}
	entries, err := localfs.ListDirectory(abs, localfs.ListOptions{})
	if err != nil {
		return fmt.Errorf("cannot list %s: %w", abs, err)
	}

	fmt.Printf("\n%s - %d item(s)\n", abs, len(entries))
	for _, e := range entries {
		name := e.Name
		size := "-"
		if e.IsDir {
			name += "/"
		} else {
			size = format.FormatSize(e.Size)
		}
		fmt.Printf("      %-44s %10s  %s\n", name, size, format.FormatTime(e.ModTime))
	}
	return nil
}

// installRefresh wires the post-completion listing reload, gated on the
// auto_refresh setting.
func (b *browser) installRefresh(ctx context.Context, runner *ops.Runner) {
	if !b.settings.AutoRefresh {
		return
	}
	runner.SetRefresh(func() {
		if err := b.reload(ctx); err != nil {
			logger.Warnf("Refresh failed: %v", err)
		}
	})
}

// confirm asks on the session's own input stream, so buffered lines are
// not lost between two readers.
func (b *browser) confirm(title string) bool {
	fmt.Printf("Delete %q? This cannot be undone. (yes/no): ", title)
	if !b.scanner.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(b.scanner.Text()))
	return answer == "yes" || answer == "y"
}

// resolve finds an entry in the current listing by row number, ID or
// title, in that order.
func (b *browser) resolve(arg string) (models.Entry, error) {
	entries := b.list.Entries()
	if n, err := strconv.Atoi(arg); err == nil {
		if n < 1 || n > len(entries) {
			return models.Entry{}, fmt.Errorf("row %d out of range (the listing has %d entries)", n, len(entries))
		}
		return entries[n-1], nil
	}
	if e, ok := b.list.FindByID(arg); ok {
		return e, nil
	}
	if e, ok := b.list.FindByTitle(arg); ok {
		return e, nil
	}
	return models.Entry{}, fmt.Errorf("no entry %q in this folder", arg)
}

func (b *browser) render() {
	_, name := b.list.Folder()
	entries := b.list.Entries()

	fmt.Printf("\n%s - %d item(s)\n", name, len(entries))
	for i, e := range entries {
		title := e.Title
		if e.IsFolder() {
			title += "/"
		}
		size := "-"
		if !e.IsFolder() {
			size = format.FormatSize(e.Size)
		}
		fmt.Printf("%4d. %-44s %10s  %s\n", i+1, title, size, format.FormatTime(e.ModTime))
	}
}

func (b *browser) printTrail() {
	trail := b.nav.Trail()
	names := make([]string, len(trail))
	for i, loc := range trail {
		names[i] = loc.Name
	}
	fmt.Println(strings.Join(names, " / "))
}
