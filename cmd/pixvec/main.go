package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/pixvec/pixvec"
	"github.com/pixvec/pixvec/utils"
	"golang.org/x/term"
)

const HelpBanner = `
┌─┐┬─┐ ┬┬  ┬┌─┐┌─┐
├─┘│┌┴┬┘└┐┌┘├┤ │
┴  ┴┴ └─ └┘ └─┘└─┘

Bidirectional vector/raster image converter.
    Version: %s

`

// pipeName is the file name that indicates stdin/stdout is being used.
const pipeName = "-"

// maxWorkers sets the maximum number of concurrently running workers.
const maxWorkers = 20

// result holds the relevant information about a finished conversion.
type result struct {
	path string
	err  error
}

// options carries the conversion settings; every conversion gets its own
// processor instance built from them.
type options struct {
	width     int
	height    int
	quality   float64
	threshold int
	maxDim    int
	format    pixvec.Format
}

var (
	// imgurl holds the downloaded source in case an URL is provided.
	imgurl *os.File
	// spinner used to instantiate and call the progress indicator.
	spinner *utils.Spinner
)

// Version indicates the current build version.
var Version string

var (
	// Flags
	source      = flag.String("in", pipeName, "Source")
	destination = flag.String("out", pipeName, "Destination")
	width       = flag.Int("width", 0, "Raster target width")
	height      = flag.Int("height", 0, "Raster target height")
	quality     = flag.Float64("quality", 1.0, "Encoding quality factor in the [0.1, 1.0] range")
	threshold   = flag.Int("threshold", 128, "Brightness threshold of the tracer")
	maxDim      = flag.Int("maxdim", 0, "Downscale raster sources above this dimension before tracing")
	format      = flag.String("format", "png", "Raster target format (png, jpg, bmp)")
	pathsOnly   = flag.Bool("paths", false, "Print the path data of a vector source instead of converting it")
	workers     = flag.Int("conc", runtime.NumCPU(), "Number of files to process concurrently")

	// File related variables
	fs  os.FileInfo
	err error
)

// validExtensions lists the supported source file types.
var validExtensions = []string{".svg", ".jpg", ".png", ".jpeg", ".bmp", ".gif"}

func main() {
	log.SetFlags(0)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, fmt.Sprintf(HelpBanner, Version))
		flag.PrintDefaults()
	}
	flag.Parse()

	targetFormat, err := pixvec.ParseFormat(*format)
	if err != nil {
		log.Fatalf(utils.DecorateText(err.Error(), utils.ErrorMessage))
	}
	if targetFormat == pixvec.FormatSVG {
		log.Fatalf(utils.DecorateText("the raster target format cannot be svg, raster sources are traced to svg automatically", utils.ErrorMessage))
	}

	opts := options{
		width:     *width,
		height:    *height,
		quality:   *quality,
		threshold: *threshold,
		maxDim:    *maxDim,
		format:    targetFormat,
	}

	spinnerText := fmt.Sprintf("%s %s",
		utils.DecorateText("⚡ PIXVEC", utils.StatusMessage),
		utils.DecorateText("is converting the image...", utils.DefaultMessage))
	spinner = utils.NewSpinner(spinnerText, time.Millisecond*200, true)

	// Check if source path is a local image or URL.
	if utils.IsValidUrl(*source) {
		src, err := utils.DownloadImage(*source)
		if src != nil {
			defer src.Close()
			defer os.Remove(src.Name())
		}
		if err != nil {
			log.Fatalf(
				utils.DecorateText("Failed to load the source image: %v", utils.ErrorMessage),
				utils.DecorateText(err.Error(), utils.DefaultMessage),
			)
		}
		img, err := os.Open(src.Name())
		if err != nil {
			log.Fatalf(
				utils.DecorateText("Unable to open the temporary image file: %v", utils.ErrorMessage),
				utils.DecorateText(err.Error(), utils.DefaultMessage),
			)
		}
		imgurl = img
		fs, err = img.Stat()
		if err != nil {
			log.Fatalf(
				utils.DecorateText("Unable to get the temporary file stats: %v", utils.ErrorMessage),
				utils.DecorateText(err.Error(), utils.DefaultMessage),
			)
		}
	} else {
		// Check if the source is a pipe name or a regular file.
		if *source == pipeName {
			fs, err = os.Stdin.Stat()
		} else {
			fs, err = os.Stat(*source)
		}
		if err != nil {
			log.Fatalf(
				utils.DecorateText("Failed to load the source image: %v", utils.ErrorMessage),
				utils.DecorateText(err.Error(), utils.DefaultMessage),
			)
		}
	}

	now := time.Now()

	switch mode := fs.Mode(); {
	case mode.IsDir():
		var wg sync.WaitGroup
		// Read destination file or directory.
		_, err := os.Stat(*destination)
		if err != nil {
			err = os.Mkdir(*destination, 0755)
			if err != nil {
				log.Fatalf(
					utils.DecorateText("Unable to get dir stats: %v\n", utils.ErrorMessage),
					utils.DecorateText(err.Error(), utils.DefaultMessage),
				)
			}
		}

		// Limit the concurrently running workers to maxWorkers.
		if *workers <= 0 {
			*workers = runtime.NumCPU()
		}
		*workers = utils.Min(*workers, maxWorkers)

		// Process the image files from the specified directory concurrently.
		ch := make(chan result)
		done := make(chan interface{})
		defer close(done)

		paths, errc := walkDir(done, *source, validExtensions)

		wg.Add(*workers)
		for i := 0; i < *workers; i++ {
			go func() {
				defer wg.Done()
				consumer(done, paths, *destination, opts, ch)
			}()
		}

		// Close the channel after the values are consumed.
		go func() {
			defer close(ch)
			wg.Wait()
		}()

		// Consume the channel values.
		for res := range ch {
			printStatus(res.path, res.err)
		}

		if err := <-errc; err != nil {
			fmt.Fprintf(os.Stderr, utils.DecorateText(err.Error(), utils.ErrorMessage))
		}

	case mode.IsRegular() || mode&os.ModeNamedPipe != 0: // check for regular files or pipe names
		ext := filepath.Ext(*source)
		if !isValidExtension(strings.ToLower(ext), validExtensions) && *source != pipeName && imgurl == nil {
			log.Fatalf(utils.DecorateText(fmt.Sprintf("%v file type not supported", ext), utils.ErrorMessage))
		}

		err := convert(*source, *destination, opts)
		printStatus(*destination, err)
	}
	fmt.Fprintf(os.Stderr, "\nExecution time: %s\n", utils.DecorateText(fmt.Sprintf("%s", utils.FormatTime(time.Since(now))), utils.SuccessMessage))
}

// walkDir starts a goroutine to walk the specified directory tree in recursive manner
// and send the path of each regular file on the string channel.
// It sends the result of the walk on the error channel.
// It terminates in case done channel is closed.
func walkDir(
	done <-chan interface{},
	src string,
	srcExts []string,
) (<-chan string, <-chan error) {
	pathChan := make(chan string)
	errChan := make(chan error, 1)

	go func() {
		// Close the paths channel after Walk returns.
		defer close(pathChan)

		errChan <- filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.Mode().IsRegular() {
				return nil
			}

			// Get the file base name.
			fx := strings.ToLower(filepath.Ext(info.Name()))
			if !isValidExtension(fx, srcExts) {
				return nil
			}

			select {
			case <-done:
				return errors.New("directory walk cancelled")
			case pathChan <- path:
			}
			return nil
		})
	}()
	return pathChan, errChan
}

// consumer reads the path names from the paths channel and
// runs the converter against the source image
// then sends the results on a new channel.
func consumer(
	done <-chan interface{},
	paths <-chan string,
	dest string,
	opts options,
	res chan<- result,
) {
	for src := range paths {
		out := outputName(src)
		dest := filepath.Join(dest, out)
		err := convert(src, dest, opts)

		select {
		case <-done:
			return
		case res <- result{
			path: src,
			err:  err,
		}:
		}
	}
}

// outputName derives the destination file name from the source name
// by swapping the extension for the one of the opposite direction.
func outputName(src string) string {
	base := filepath.Base(src)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	mtype := mime.TypeByExtension(filepath.Ext(src))
	if pixvec.Classify(mtype, src) == pixvec.KindVector {
		f, err := pixvec.ParseFormat(*format)
		if err != nil {
			f = pixvec.FormatPNG
		}
		return stem + f.Ext()
	}
	return stem + pixvec.FormatSVG.Ext()
}

// convert runs the conversion over the source image and
// returns the error in case exists, otherwise nil.
func convert(in, out string, opts options) error {
	src, dst, err := pathToFile(in, out)
	if err != nil {
		return err
	}
	if c, ok := src.(io.Closer); ok {
		defer c.Close()
	}
	if c, ok := dst.(io.Closer); ok && dst != os.Stdout {
		defer c.Close()
	}

	// Capture CTRL-C signal and restore the cursor visibility back.
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-signalChan
		func() {
			spinner.RestoreCursor()
			os.Exit(1)
		}()
	}()

	name := filepath.Base(in)
	mtype := mime.TypeByExtension(filepath.Ext(in))

	// Extraction mode only reads the path geometry, it does not convert.
	if *pathsOnly {
		paths, err := pixvec.ExtractPaths(src)
		if err != nil {
			return err
		}
		for _, d := range paths {
			fmt.Fprintln(dst, d)
		}
		return nil
	}

	// The converter is copied per invocation so every conversion
	// owns its in-flight slot and artifact store.
	proc := &pixvec.Processor{
		Width:     opts.width,
		Height:    opts.height,
		Quality:   opts.quality,
		Threshold: opts.threshold,
		MaxDim:    opts.maxDim,
		Format:    opts.format,
		Name:      strings.TrimSuffix(name, filepath.Ext(name)),
		Logger:    log.New(os.Stderr, "", 0),
	}

	// Start the progress indicator.
	spinner.Start()
	art, err := proc.Convert(src, name, mtype)

	stopMsg := fmt.Sprintf("%s %s",
		utils.DecorateText("⚡ PIXVEC", utils.StatusMessage),
		utils.DecorateText("is converting the image... ✔", utils.DefaultMessage))
	spinner.StopMsg = stopMsg

	// Stop the progress indicator.
	spinner.Stop()

	if err != nil {
		return err
	}

	_, err = art.WriteTo(dst)
	return err
}

// pathToFile converts the source and destination paths to readable and writable files.
func pathToFile(in, out string) (io.Reader, io.Writer, error) {
	var (
		src io.Reader
		dst io.Writer
		err error
	)
	// Check if the source path is a local image or URL.
	if utils.IsValidUrl(in) {
		src = imgurl
	} else {
		// Check if the source is a pipe name or a regular file.
		if in == pipeName {
			if term.IsTerminal(int(os.Stdin.Fd())) {
				return nil, nil, errors.New("`-` should be used with a pipe for stdin")
			}
			src = os.Stdin
		} else {
			src, err = os.Open(in)
			if err != nil {
				return nil, nil, fmt.Errorf("unable to open the source file: %v", err)
			}
		}
	}

	// Check if the destination is a pipe name or a regular file.
	if out == pipeName {
		if term.IsTerminal(int(os.Stdout.Fd())) && !*pathsOnly {
			return nil, nil, errors.New("`-` should be used with a pipe for stdout")
		}
		dst = os.Stdout
	} else {
		dst, err = os.OpenFile(out, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("unable to create the destination file: %v", err)
		}
	}
	return src, dst, nil
}

// printStatus displays the relevant information about the conversion process.
func printStatus(fname string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr,
			utils.DecorateText("\nError converting the image: %s", utils.ErrorMessage),
			utils.DecorateText(fmt.Sprintf("\n\tReason: %v\n", err.Error()), utils.DefaultMessage),
		)
		os.Exit(1)
	} else {
		if fname != pipeName {
			fmt.Fprintf(os.Stderr, fmt.Sprintf("\nThe converted image has been saved as: %s %s\n",
				utils.DecorateText(filepath.Base(fname), utils.SuccessMessage),
				utils.DefaultColor,
			))
		}
	}
}

// isValidExtension checks for the supported extensions.
func isValidExtension(ext string, extensions []string) bool {
	for _, ex := range extensions {
		if ex == ext {
			return true
		}
	}
	return false
}
