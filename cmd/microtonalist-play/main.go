package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/calinburloiu/microtonalist-sub001/format"
	"github.com/calinburloiu/microtonalist-sub001/tuner"
	"github.com/calinburloiu/microtonalist-sub001/tuner/gomidi"
	"github.com/calinburloiu/microtonalist-sub001/version"
)

func main() {
	list := flag.Bool("l", false, "List the available MIDI input and output devices and exit.")
	inPrefix := flag.String("i", "", "MIDI input device name prefix. The first matching device is opened; an empty prefix opens the first device.")
	outPrefix := flag.String("o", "", "MIDI output device name prefix. The first matching device is opened; an empty prefix opens the first device.")
	debug := flag.Bool("d", false, "Log debug information.")
	versionFlag := flag.Bool("v", false, "Print version.")
	flag.Usage = printUsage
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.VersionOrHash)
		os.Exit(0)
	}
	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	context := gomidi.NewContext()
	defer context.Close()
	if *list {
		fmt.Println("MIDI inputs:")
		for name := range context.InputDevices {
			fmt.Printf("  %s\n", name)
		}
		fmt.Println("MIDI outputs:")
		for name := range context.OutputDevices {
			fmt.Printf("  %s\n", name)
		}
		return
	}
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	if err := run(context, flag.Arg(0), *inPrefix, *outPrefix, logger); err != nil {
		logger.Error("exiting", "error", err)
		os.Exit(1)
	}
}

func run(context *gomidi.RTMIDIContext, path, inPrefix, outPrefix string, logger *slog.Logger) error {
	composition, err := format.LoadComposition(path)
	if err != nil {
		return err
	}
	tunings, err := composition.TuningSequence()
	if err != nil {
		return err
	}
	logger.Info("composition loaded", "name", composition.Name, "sections", len(composition.Sections), "tunings", len(tunings))

	in, err := context.OpenInputBy(inPrefix)
	if err != nil {
		return err
	}
	out, err := context.OpenOutputBy(outPrefix)
	if err != nil {
		return err
	}
	logger.Info("MIDI output open", "device", out.String())

	instrument, err := composition.NewTuner()
	if err != nil {
		return err
	}
	broker := tuner.NewBroker()
	tuningIn := broker.RegisterTrack()
	track := tuner.NewTrack(composition.Name, instrument, composition.NewTuningChangeProcessor(), out, in, tuningIn, broker, logger)
	service := tuner.NewTuningService(broker, tunings, logger)

	trackDone := make(chan struct{})
	go func() {
		track.Run()
		close(trackDone)
	}()
	go service.Run()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, syscall.SIGINT, syscall.SIGTERM)
	<-interrupt
	logger.Info("shutting down")

	tuner.TrySend(broker.CloseService, struct{}{})
	select {
	case <-broker.FinishedService:
	case <-time.After(3 * time.Second):
	}
	broker.CloseTracks()
	select {
	case <-trackDone:
	case <-time.After(3 * time.Second):
	}
	return nil
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Microtonalist utility for retuning MIDI instruments live from a composition file.\nUsage: %s [flags] composition.yml\n", os.Args[0])
	flag.PrintDefaults()
}
