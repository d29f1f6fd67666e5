package commands

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	fcolor "github.com/fatih/color"
	"github.com/josephlewis42/nesh/core/vos"
	"golang.org/x/term"
)

// Ls implements the UNIX ls command.
func Ls(virtOS vos.VOS) int {
	cmd := &SimpleCommand{
		Use:   "ls [OPTION]... [FILE]...",
		Short: "List information about the FILEs (the current directory by default).",
	}

	opts := cmd.Flags()
	cmd.ShowHelp = opts.BoolLong("help", '?', "show this help and exit")
	listAll := opts.Bool('a', "don't ignore entries starting with .")
	longListing := opts.Bool('l', "use a long listing format")
	onePerLine := opts.Bool('1', "list one file per line")
	humanSize := opts.BoolLong("human-readable", 'h', "print human readable sizes")
	lineWidth := opts.IntLong("width", 'w', terminalWidth(virtOS), "set the column width, 0 is infinite")

	var color ColorPrinter
	color.Init(opts, virtOS)

	return cmd.Run(virtOS, func() int {
		toList := opts.Args()
		if len(toList) == 0 {
			toList = append(toList, ".")
		}
		sort.Strings(toList)

		sizeFmt := func(bytes int64) string {
			return fmt.Sprintf("%d", bytes)
		}
		if *humanSize {
			sizeFmt = BytesToHuman
		}

		width := *lineWidth
		if width <= 0 {
			width = math.MaxInt32
		}

		owners := newOwnerResolver(virtOS)
		w := virtOS.Stdout()

		// Plain files are listed first, together, then each directory.
		var files []fs.FileInfo
		var dirs []string
		exitCode := 0
		for _, name := range toList {
			stat, err := virtOS.Stat(name)
			switch {
			case err != nil:
				cmd.LogProgramError(virtOS, fmt.Errorf("cannot access '%s': %w", name, unwrapPathError(err)))
				exitCode = 1
			case stat.IsDir():
				dirs = append(dirs, name)
			default:
				files = append(files, renamedFileInfo{FileInfo: stat, name: name})
			}
		}

		showDirectoryNames := len(toList) > 1
		printEntries := func(entries []fs.FileInfo) {
			switch {
			case *longListing:
				var totalSize int64
				for _, f := range entries {
					totalSize += f.Size()
				}
				fmt.Fprintf(w, "total %d\n", totalSize)
				printLong(w, entries, sizeFmt, owners, &color)
			case *onePerLine || *lineWidth < 0:
				for _, f := range entries {
					fmt.Fprintln(w, color.Sprintf(Dircolor(f), "%s", f.Name()))
				}
			default:
				printColumns(w, entries, width, &color)
			}
		}

		if len(files) > 0 {
			printEntries(files)
		}

		for i, dir := range dirs {
			entries, err := readDir(virtOS, dir, *listAll)
			if err != nil {
				cmd.LogProgramError(virtOS, fmt.Errorf("cannot open directory '%s': %w", dir, unwrapPathError(err)))
				exitCode = 1
				continue
			}

			if showDirectoryNames {
				if i > 0 || len(files) > 0 {
					fmt.Fprintln(w)
				}
				fmt.Fprintf(w, "%s:\n", dir)
			}
			printEntries(entries)
		}

		return exitCode
	})
}

// terminalWidth is the width of the command's stdout if it's a terminal,
// otherwise -1 to list one file per line.
func terminalWidth(virtOS vos.VOS) int {
	f, ok := vos.OSFile(virtOS.Stdout())
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return -1
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 80
	}
	return width
}

func readDir(virtOS vos.VOS, dir string, listAll bool) ([]fs.FileInfo, error) {
	file, err := virtOS.Open(dir)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	allPaths, err := file.Readdir(-1)
	if err != nil {
		return nil, err
	}

	var paths []fs.FileInfo
	for _, p := range allPaths {
		if !listAll && strings.HasPrefix(p.Name(), ".") {
			continue
		}
		paths = append(paths, p)
	}

	sort.Slice(paths, func(i int, j int) bool {
		return paths[i].Name() < paths[j].Name()
	})
	return paths, nil
}

func unwrapPathError(err error) error {
	if pathErr, ok := err.(*fs.PathError); ok {
		return pathErr.Err
	}
	return err
}

// renamedFileInfo displays a file by the name it was requested as.
type renamedFileInfo struct {
	fs.FileInfo
	name string
}

func (r renamedFileInfo) Name() string {
	return r.name
}

func printLong(w io.Writer, entries []fs.FileInfo, sizeFmt func(int64) string, owners *ownerResolver, color *ColorPrinter) {
	currentYear := time.Now().Year()

	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	for _, f := range entries {
		hardLinks := 1
		if f.IsDir() {
			hardLinks = 2
		}

		// Include time if current year.
		modTime := f.ModTime().Format("Jan _2 2006")
		if f.ModTime().Year() >= currentYear {
			modTime = f.ModTime().Format("Jan _2 15:04")
		}

		uid, gid := getUIDGID(f)
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\t%s\n",
			f.Mode().String(),
			hardLinks,
			owners.user(uid),
			owners.group(gid),
			sizeFmt(f.Size()),
			modTime,
			color.Sprintf(Dircolor(f), "%s", f.Name()))
	}
	tw.Flush()
}

func printColumns(w io.Writer, entries []fs.FileInfo, width int, color *ColorPrinter) {
	colWidths := columnize(entries, width)
	cols := len(colWidths)
	rows := len(entries) / cols
	if len(entries)%cols > 0 {
		rows++
	}

	for row := 0; row < rows; row++ {
		for col, colWidth := range colWidths {
			// Add padding if there was a column before this.
			if col > 0 {
				fmt.Fprint(w, "  ")
			}
			if index := (col * rows) + row; index < len(entries) {
				entry := entries[index]
				name := entry.Name()
				colWidth -= len(name)
				fmt.Fprint(w, color.Sprintf(Dircolor(entry), "%s", name))
			}
			// Pad for alignment, except after the last column.
			if colWidth > 0 && col < cols-1 {
				fmt.Fprint(w, strings.Repeat(" ", colWidth))
			}
		}
		fmt.Fprintln(w)
	}
}

type LsColorTest struct {
	color *fcolor.Color
	test  func(fileInfo os.FileInfo) bool
}

// Color listing comes from: https://askubuntu.com/a/884513
var dircolors = []LsColorTest{
	// Directories are bold blue.
	{color: ColorBoldBlue, test: os.FileInfo.IsDir},
	// Symlinks are bold cyan.
	{color: ColorBoldCyan, test: func(fi os.FileInfo) bool {
		return fi.Mode()&fs.ModeSymlink > 0
	}},
	// Yellow with black background pipe, block device, char device.
	{color: fcolor.New(fcolor.FgYellow, fcolor.BgBlack, fcolor.Bold), test: func(fi os.FileInfo) bool {
		return fi.Mode()&(fs.ModeDevice|fs.ModeNamedPipe|fs.ModeSocket|fs.ModeCharDevice) > 0
	}},
	// Executables are bold green.
	{color: ColorBoldGreen, test: func(fi os.FileInfo) bool {
		return fi.Mode().Perm()&0111 > 0
	}},
	// Archives are bold red.
	{color: ColorBoldRed, test: func(fi os.FileInfo) bool {
		return archiveExtensions[path.Ext(fi.Name())]
	}},
}

var archiveExtensions = map[string]bool{
	".tar": true,
	".tgz": true,
	".zip": true,
	".gz":  true,
	".bz2": true,
	".deb": true,
	".rpm": true,
	".jar": true,
	".rar": true,
}

// Dircolor picks the color a file is listed with.
func Dircolor(fileInfo os.FileInfo) *fcolor.Color {
	for _, dc := range dircolors {
		if dc.test(fileInfo) {
			return dc.color
		}
	}

	// Anything else defaults to white.
	return fcolor.New(fcolor.FgHiWhite)
}

// columnize returns the width of each column needed to fit the names in
// screenWidth, filling columns top to bottom.
func columnize(paths []fs.FileInfo, screenWidth int) []int {
	numFiles := len(paths)
	if numFiles == 0 {
		return []int{0}
	}

	const colPadding = 2

	displayLengths := make([]int, len(paths))
	for i, p := range paths {
		displayLengths[i] = len(p.Name())
	}

	// Start with maximum number of columns and work down until all the data fits.
	// 3 is the minimum column width, 1 char filename + 2 padding.
	columns := screenWidth / (1 + colPadding)
	if columns > numFiles {
		columns = numFiles
	}
	var maximums []int // Holds maximum size of a name in the column.
	for ; columns >= 1; columns-- {
		rows := numFiles / columns
		if numFiles%columns > 0 {
			rows++
		}
		// Skip layouts that would leave the last column empty.
		if (columns-1)*rows >= numFiles {
			continue
		}

		maximums = make([]int, columns)
		total := (columns - 1) * colPadding
		for i, nameLen := range displayLengths {
			col := i / rows
			if nameLen > maximums[col] {
				total += nameLen - maximums[col]
				maximums[col] = nameLen
			}
		}

		if total <= screenWidth {
			return maximums
		}
	}

	return maximums
}

func getUIDGID(fileInfo os.FileInfo) (uid, gid int) {
	if st, ok := fileInfo.Sys().(*syscall.Stat_t); ok {
		return int(st.Uid), int(st.Gid)
	}
	return 0, 0
}

// ownerResolver maps numeric ids to names from the session's /etc/passwd
// and /etc/group.
type ownerResolver struct {
	users  map[int]string
	groups map[int]string
}

func newOwnerResolver(virtOS vos.VOS) *ownerResolver {
	return &ownerResolver{
		users:  readIDFile(virtOS, "/etc/passwd"),
		groups: readIDFile(virtOS, "/etc/group"),
	}
}

func (o *ownerResolver) user(uid int) string {
	return lookupID(o.users, uid)
}

func (o *ownerResolver) group(gid int) string {
	return lookupID(o.groups, gid)
}

func lookupID(names map[int]string, id int) string {
	if name, ok := names[id]; ok {
		return name
	}
	return strconv.Itoa(id)
}

// readIDFile reads "name:x:id:..." entries, a missing file yields only root.
func readIDFile(virtOS vos.VOS, file string) map[int]string {
	mapping := map[int]string{
		0: "root", // seed in case we don't see any others.
	}

	fd, err := virtOS.Open(file)
	if err != nil {
		return mapping
	}
	defer fd.Close()

	scanner := bufio.NewScanner(fd)
	for scanner.Scan() {
		entry := strings.Split(scanner.Text(), ":")
		if len(entry) < 3 {
			continue
		}
		if id, err := strconv.Atoi(entry[2]); err == nil {
			mapping[id] = entry[0]
		}
	}

	return mapping
}

var _ vos.ProcessFunc = Ls

func init() {
	mustAddBuiltin("ls", Ls)
}
