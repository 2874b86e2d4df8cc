package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/calinburloiu/microtonalist-sub001/format"
	"github.com/calinburloiu/microtonalist-sub001/tuner"
	"github.com/calinburloiu/microtonalist-sub001/version"
)

func main() {
	stdout := flag.Bool("s", false, "Do not write files; hex dump the messages to standard output instead.")
	help := flag.Bool("h", false, "Show help.")
	directory := flag.String("o", "", "Directory where to output all files. The directory and its parents are created if needed. By default, everything is placed in the same directory where the original composition file is.")
	wide := flag.Bool("w", false, "Use the 2-byte MTS octave form for higher resolution. By default, the 1-byte form is used.")
	realtime := flag.Bool("r", false, "Emit realtime MTS messages instead of non-realtime ones.")
	versionFlag := flag.Bool("v", false, "Print version.")
	flag.Usage = printUsage
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.VersionOrHash)
		os.Exit(0)
	}
	if flag.NArg() == 0 || *help {
		flag.Usage()
		os.Exit(0)
	}
	form := tuner.MtsOctave1ByteForm
	if *wide {
		form = tuner.MtsOctave2ByteForm
	}
	generator, err := tuner.NewMtsMessageGenerator(form, *realtime)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	process := func(filename string) error {
		output := func(suffix string, contents []byte) error {
			if *stdout {
				for i, b := range contents {
					if i > 0 && i%8 == 0 {
						fmt.Println()
					} else if i > 0 {
						fmt.Print(" ")
					}
					fmt.Printf("%02X", b)
				}
				fmt.Println()
				return nil
			}
			dir, name := filepath.Split(filename)
			if *directory != "" {
				dir = *directory
			}
			name = strings.TrimSuffix(name, filepath.Ext(name)) + suffix
			if dir != "" {
				if err := os.MkdirAll(dir, os.ModePerm); err != nil {
					return fmt.Errorf("could not create output directory %v: %v", dir, err)
				}
			}
			f := filepath.Join(dir, name)
			if err := os.WriteFile(f, contents, 0644); err != nil {
				return fmt.Errorf("could not write file %v: %v", f, err)
			}
			return nil
		}
		composition, err := format.LoadComposition(filename)
		if err != nil {
			return err
		}
		tunings, err := composition.TuningSequence()
		if err != nil {
			return err
		}
		for i, tuning := range tunings {
			message := generator.Generate(tuning)
			suffix := fmt.Sprintf("-%d.syx", i)
			if err := output(suffix, []byte(message)); err != nil {
				return fmt.Errorf("error outputting tuning %d (%s): %v", i, tuning.Name, err)
			}
		}
		return nil
	}
	retval := 0
	for _, param := range flag.Args() {
		if err := process(param); err != nil {
			fmt.Fprintf(os.Stderr, "could not process file %v: %v\n", param, err)
			retval = 1
		}
	}
	os.Exit(retval)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Microtonalist command line utility for exporting composition tunings as MIDI Tuning Standard .syx files.\nUsage: %s [flags] [composition.yml ...]\n", os.Args[0])
	flag.PrintDefaults()
}
