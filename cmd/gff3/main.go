package main

import (
	"os"

	"github.com/alecthomas/kingpin"
)

var (
	app   = kingpin.New("gff3", "A command-line application for working with GFF3 files.")
	debug = app.Flag("debug", "Enable debug mode.").Bool()

	syncApp   = app.Command("sync", "rewrite inputs with ### sync marks at every safe point.")
	syncFiles = syncApp.Arg("gff3_file", "input GFF3 files.").Required().ExistingFiles()

	fmtApp   = app.Command("fmt", "reformat feature lines with canonical escaping and attribute order.")
	fmtFiles = fmtApp.Arg("gff3_file", "input GFF3 files (- for stdin).").Default("-").Strings()

	statsApp   = app.Command("stats", "report per-type counts and span statistics.")
	statsFiles = statsApp.Arg("gff3_file", "input GFF3 files (- for stdin).").Default("-").Strings()
	statsStore = statsApp.Flag("store", "temp store backend: memory, bolt or lmdb.").Default("memory").Enum("memory", "bolt", "lmdb")
	statsMaxR  = statsApp.Flag("max_resident", "max in-memory features before spilling (disk stores).").Default("0").Int()
)

func main() {
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	switch command {
	case syncApp.FullCommand():
		synccmd := cmdSync{
			files: *syncFiles,
			out:   os.Stdout,
		}
		synccmd.run()
	case fmtApp.FullCommand():
		fmtcmd := cmdFmt{
			files: *fmtFiles,
			out:   os.Stdout,
		}
		fmtcmd.run()
	case statsApp.FullCommand():
		statscmd := cmdStats{
			files:       *statsFiles,
			store:       *statsStore,
			maxResident: *statsMaxR,
			out:         os.Stdout,
		}
		statscmd.run()
	}
}
