package colorcipher

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/esimov/colorcipher/utils"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// maxWorkers sets the maximum number of concurrently running workers.
const maxWorkers = 20

// Ops describes the source and destination of an execution.
type Ops struct {
	Src, Dst, PipeName string
	Workers            int
	// Status receives the human readable progress messages. Defaults to os.Stderr.
	Status io.Writer
}

// result holds the outcome of processing one source file.
type result struct {
	path string
	err  error
}

// Execute processes a single file, a pipe or every supported file of a directory.
// Directories are processed concurrently by a bounded pool of workers, each file
// in its own session. It returns the first error encountered, after every file
// has been attempted.
func (p *Processor) Execute(op *Ops) error {
	if err := p.init(); err != nil {
		return err
	}
	if op.Status == nil {
		op.Status = os.Stderr
	}
	if p.Spinner == nil {
		msg := fmt.Sprintf("%s %s",
			utils.DecorateText("◼ COLORCIPHER", utils.StatusMessage),
			utils.DecorateText("⇢ painting the message...", utils.DefaultMessage),
		)
		p.Spinner = utils.NewSpinner(msg, time.Millisecond*80, true)
		p.Spinner.SetWriter(op.Status)
	}

	var (
		fs  os.FileInfo
		err error
	)
	// Check if the source is a pipe name or a regular file.
	if op.Src == op.PipeName {
		fs, err = os.Stdin.Stat()
	} else {
		fs, err = os.Stat(op.Src)
	}
	if err != nil {
		return fmt.Errorf("failed to load the source: %w", err)
	}

	now := time.Now()
	defer func() {
		p.Logger.Debug("execution finished", zap.Duration("elapsed", time.Since(now)))
	}()

	switch mode := fs.Mode(); {
	case mode.IsDir():
		// Read destination file or directory.
		if _, err := os.Stat(op.Dst); err != nil {
			if err := os.MkdirAll(op.Dst, 0755); err != nil {
				return fmt.Errorf("unable to create the destination directory: %w", err)
			}
		}

		if !p.Extract {
			if err := CheckFormat(p.Layout, p.Format); err != nil {
				return err
			}
		}

		// Limit the concurrently running workers to maxWorkers.
		if op.Workers <= 0 || op.Workers > maxWorkers {
			op.Workers = runtime.NumCPU()
		}

		var (
			wg       sync.WaitGroup
			firstErr error
		)
		ch := make(chan result)
		done := make(chan struct{})
		defer close(done)

		paths, errc := walkDir(done, op.Src, p.sourceExtensions())
		claims := &destClaims{owners: make(map[string]string)}

		wg.Add(op.Workers)
		for i := 0; i < op.Workers; i++ {
			go func() {
				defer wg.Done()
				op.consumer(p, claims, ch, done, paths)
			}()
		}

		// Close the channel after the values are consumed.
		go func() {
			defer close(ch)
			wg.Wait()
		}()

		// Consume the channel values.
		for res := range ch {
			if res.err != nil && firstErr == nil {
				firstErr = res.err
			}
			op.printOpStatus(res.path, res.err)
		}

		if err := <-errc; err != nil && firstErr == nil {
			firstErr = err
		}
		if firstErr != nil {
			return firstErr
		}

	case mode.IsRegular() || mode&os.ModeNamedPipe != 0 || mode&os.ModeCharDevice != 0:
		if !p.Extract && isExportDir(op.Dst) {
			dir := op.Dst
			if dir == "" {
				dir = "."
			}
			p.Spinner.Start()
			name, err := op.export(p, DirSaver{Dir: dir})
			p.Spinner.Stop()
			op.printOpStatus(filepath.Join(dir, name), err)
			if err != nil {
				return err
			}
			break
		}
		if op.Dst != op.PipeName && !p.Extract {
			f, err := FormatFromPath(op.Dst)
			if err != nil {
				return err
			}
			if err := CheckFormat(p.Layout, f); err != nil {
				return err
			}
		}
		p.Spinner.Start()
		err = op.process(p, op.Src, op.Dst)
		p.Spinner.Stop()
		op.printOpStatus(op.Dst, err)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported source: %s", op.Src)
	}

	fmt.Fprintf(op.Status, "\nExecution time: %s\n", utils.DecorateText(utils.FormatTime(time.Since(now)), utils.SuccessMessage))
	return nil
}

// sourceExtensions returns the file types picked up when walking a directory.
func (p *Processor) sourceExtensions() []string {
	if p.Extract {
		return []string{".png", ".bmp"}
	}
	if p.Mode == Decode {
		return []string{".hex", ".txt"}
	}
	return []string{".txt", ".md"}
}

// destPath returns the file produced for the source file src found under root.
// The path relative to root and the source extension are kept, so notes.txt and
// notes.md, or a/x.txt and b/x.txt, never share an output. Extraction drops the
// image extension and restores a text extension when none is left.
func (p *Processor) destPath(root, dest, src string) string {
	rel, err := filepath.Rel(root, src)
	if err != nil {
		rel = filepath.Base(src)
	}
	if p.Extract {
		rel = strings.TrimSuffix(rel, filepath.Ext(rel))
		if filepath.Ext(rel) == "" {
			rel += ".txt"
		}
		return filepath.Join(dest, rel)
	}
	return filepath.Join(dest, rel+"."+p.Format.Ext())
}

// destClaims hands every destination path to a single source file.
type destClaims struct {
	mu     sync.Mutex
	owners map[string]string
}

// claim registers src as the producer of dst. It fails if another source got there first.
func (c *destClaims) claim(dst, src string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if owner, ok := c.owners[dst]; ok {
		return fmt.Errorf("%s and %s would both be written to %s", owner, src, dst)
	}
	c.owners[dst] = src
	return nil
}

// consumer reads the path names from the paths channel and processes every source file.
func (op *Ops) consumer(
	p *Processor,
	claims *destClaims,
	res chan<- result,
	done <-chan struct{},
	paths <-chan string,
) {
	for src := range paths {
		dst := p.destPath(op.Src, op.Dst, src)
		err := claims.claim(dst, src)
		if err == nil {
			err = os.MkdirAll(filepath.Dir(dst), 0755)
		}
		if err == nil {
			err = op.process(p, src, dst)
		}

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

// export renders the single source and saves it under a generated name in the saver.
func (op *Ops) export(p *Processor, s Saver) (string, error) {
	if op.Src == op.PipeName {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			return "", errors.New("`-` should be used with a pipe for stdin")
		}
		return p.Export(os.Stdin, s)
	}
	f, err := os.Open(op.Src)
	if err != nil {
		return "", fmt.Errorf("unable to open the source file: %w", err)
	}
	defer f.Close()
	return p.Export(f, s)
}

// isExportDir reports whether the destination asks for a generated file name:
// it is either empty or an existing directory.
func isExportDir(dst string) bool {
	if dst == "" {
		return true
	}
	fi, err := os.Stat(dst)
	return err == nil && fi.IsDir()
}

// process runs the processor over the source file and writes the output into dst.
// The destination file is removed when the processing fails.
func (op *Ops) process(p *Processor, in, out string) error {
	src, dst, err := op.pathToFile(in, out)
	if err != nil {
		return err
	}

	// Capture CTRL-C signal and restores back the cursor visibility.
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)
	defer func() {
		signal.Stop(signalChan)
		close(signalChan)
	}()
	go func() {
		if _, ok := <-signalChan; ok {
			p.Spinner.RestoreCursor()
			if f, ok := dst.(*os.File); ok && f != os.Stdout {
				os.Remove(f.Name())
			}
			os.Exit(1)
		}
	}()

	defer func() {
		if f, ok := src.(*os.File); ok && f != os.Stdin {
			if err := f.Close(); err != nil {
				p.Logger.Warn("could not close the source file", zap.Error(err))
			}
		}
	}()

	err = p.Process(src, dst)

	if f, ok := dst.(*os.File); ok && f != os.Stdout {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if err != nil {
			// remove the generated file in case of an error
			os.Remove(f.Name())
		}
	}
	return err
}

// pathToFile converts the source and destination paths to readable and writable files.
func (op *Ops) pathToFile(in, out string) (io.Reader, io.Writer, error) {
	var (
		src io.Reader
		dst io.Writer
		err error
	)
	// Check if the source is a pipe name or a regular file.
	if in == op.PipeName {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			return nil, nil, errors.New("`-` should be used with a pipe for stdin")
		}
		src = os.Stdin
	} else {
		src, err = os.Open(in)
		if err != nil {
			return nil, nil, fmt.Errorf("unable to open the source file: %w", err)
		}
	}

	// Check if the destination is a pipe name or a regular file.
	if out == op.PipeName {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			if f, ok := src.(*os.File); ok && f != os.Stdin {
				f.Close()
			}
			return nil, nil, errors.New("`-` should be used with a pipe for stdout")
		}
		dst = os.Stdout
	} else {
		dst, err = os.OpenFile(out, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			if f, ok := src.(*os.File); ok && f != os.Stdin {
				f.Close()
			}
			return nil, nil, fmt.Errorf("unable to create the destination file: %w", err)
		}
	}
	return src, dst, nil
}

// printOpStatus displays the outcome of processing one file.
func (op *Ops) printOpStatus(fname string, err error) {
	if err != nil {
		fmt.Fprintf(op.Status, "%s %s\n",
			utils.DecorateText("\n✘ "+filepath.Base(fname), utils.ErrorMessage),
			utils.DecorateText(fmt.Sprintf("\n\tReason: %v", err), utils.DefaultMessage),
		)
		return
	}
	if fname != op.PipeName {
		fmt.Fprintf(op.Status, "\nThe output has been saved as: %s %s\n",
			utils.DecorateText(filepath.Base(fname), utils.SuccessMessage),
			utils.DefaultColor,
		)
	}
}

// walkDir starts a new goroutine to walk the specified directory tree
// in recursive manner and sends the path of each supported file to a new channel.
// It finishes in case the done channel is getting closed.
func walkDir(
	done <-chan struct{},
	src string,
	srcExts []string,
) (<-chan string, <-chan error) {
	pathChan := make(chan string)
	errChan := make(chan error, 1)

	go func() {
		// Close the paths channel after Walk returns.
		defer close(pathChan)

		errChan <- filepath.Walk(src, func(path string, f os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !f.Mode().IsRegular() || !isValidExtension(filepath.Ext(f.Name()), srcExts) {
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

// isValidExtension checks for the supported extensions.
func isValidExtension(ext string, extensions []string) bool {
	ext = strings.ToLower(ext)
	for _, ex := range extensions {
		if ex == ext {
			return true
		}
	}
	return false
}
