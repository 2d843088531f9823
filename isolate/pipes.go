package isolate

import (
	"io"
	"os"
	"os/exec"
	"sync"
	"time"
)

// workerPipes connects the standard streams of a worker through pipes owned
// by the Boundary. cmd.Wait then returns as soon as the worker exits, even
// when a descendant still holds one of the pipes.
type workerPipes struct {
	child  []*os.File // ends inherited by the worker
	parent []*os.File // ends read and written by the Boundary

	stdin *os.File
	done  chan struct{} // closed once stdout and stderr reached EOF
}

func newWorkerPipes(cmd *exec.Cmd) (*workerPipes, error) {
	p := &workerPipes{done: make(chan struct{})}

	inR, inW, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	p.child = append(p.child, inR)
	p.parent = append(p.parent, inW)
	p.stdin = inW

	for _, target := range []*io.Writer{&cmd.Stdout, &cmd.Stderr} {
		r, w, err := os.Pipe()
		if err != nil {
			p.closeChild()
			p.closeParent()
			return nil, err
		}
		p.child = append(p.child, w)
		p.parent = append(p.parent, r)
		*target = w
	}
	cmd.Stdin = inR
	return p, nil
}

// start feeds input to the worker and collects its output. It must be
// called after the worker was started.
func (p *workerPipes) start(input []byte, stdout, stderr io.Writer) {
	p.closeChild()

	go func() {
		// A worker that exits without reading its input fails the write.
		_, _ = p.stdin.Write(input)
		_ = p.stdin.Close()
	}()

	var wg sync.WaitGroup
	for i, w := range []io.Writer{stdout, stderr} {
		wg.Add(1)
		go func(r io.Reader, w io.Writer) {
			defer wg.Done()
			_, _ = io.Copy(w, r)
		}(p.parent[i+1], w)
	}
	go func() {
		wg.Wait()
		close(p.done)
	}()
}

// drain waits up to d for the output pipes to be closed by every process
// holding them. It reports whether that happened.
func (p *workerPipes) drain(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-p.done:
		return true
	case <-timer.C:
		return false
	}
}

// close releases the Boundary's ends and waits for the copy goroutines.
func (p *workerPipes) close() {
	p.closeParent()
	<-p.done
}

func (p *workerPipes) closeChild() {
	for _, f := range p.child {
		_ = f.Close()
	}
	p.child = nil
}

func (p *workerPipes) closeParent() {
	for _, f := range p.parent {
		_ = f.Close()
	}
}
