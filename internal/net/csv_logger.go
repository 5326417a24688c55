package net

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strconv"
)

// CSVLogger logs training progress to a CSV file with the columns
// epoch, loss, rate and time_seconds.
type CSVLogger struct {
	BaseCallback
	Filename string
	Append   bool

	file   *os.File
	writer *csv.Writer
	err    error
}

// NewCSVLogger creates a new CSVLogger.
func NewCSVLogger(filename string, append bool) *CSVLogger {
	return &CSVLogger{
		Filename: filename,
		Append:   append,
	}
}

// Err returns the first error met while writing, if any.
func (c *CSVLogger) Err() error {
	return c.err
}

func (c *CSVLogger) fail(err error) {
	if c.err == nil {
		c.err = err
	}
	slog.Warn("csv logger", "file", c.Filename, "err", err)
}

func (c *CSVLogger) OnTrainBegin(n *Network) {
	mode := os.O_CREATE | os.O_WRONLY
	if c.Append {
		mode |= os.O_APPEND
	} else {
		mode |= os.O_TRUNC
	}

	file, err := os.OpenFile(c.Filename, mode, 0644)
	if err != nil {
		c.fail(fmt.Errorf("open %s: %w", c.Filename, err))
		return
	}
	c.file = file
	c.writer = csv.NewWriter(file)

	// Write header if not appending or if file is empty
	info, err := file.Stat()
	if err == nil && (info.Size() == 0 || !c.Append) {
		c.write([]string{"epoch", "loss", "rate", "time_seconds"})
	}
}

func (c *CSVLogger) write(record []string) {
	if err := c.writer.Write(record); err != nil {
		c.fail(fmt.Errorf("write record: %w", err))
		return
	}
	c.writer.Flush()
	if err := c.writer.Error(); err != nil {
		c.fail(fmt.Errorf("flush: %w", err))
	}
}

func (c *CSVLogger) OnEpochEnd(stats EpochStats, n *Network) {
	if c.writer == nil {
		return
	}
	c.write([]string{
		strconv.Itoa(stats.Epoch),
		strconv.FormatFloat(float64(stats.Loss), 'f', 6, 32),
		strconv.FormatFloat(float64(stats.Rate), 'g', 6, 32),
		strconv.FormatFloat(stats.Elapsed.Seconds(), 'f', 2, 64),
	})
}

func (c *CSVLogger) OnTrainEnd(n *Network) {
	if c.file != nil {
		c.writer.Flush()
		if err := c.file.Close(); err != nil {
			c.fail(fmt.Errorf("close %s: %w", c.Filename, err))
		}
		c.file = nil
		c.writer = nil
	}
}
