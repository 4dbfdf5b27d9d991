package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// evalLog writes one CSV row per evaluation and tracks the best one seen.
// Columns follow the parameter vector, so they are only known at runtime.
type evalLog struct {
	w     *csv.Writer
	count int

	bestFitness float64
	bestParams  []float64
}

func newEvalLog(out io.Writer, params *ParamVector) (*evalLog, error) {
	l := &evalLog{w: csv.NewWriter(out)}
	header := []string{"eval", "fitness", "survival", "quality"}
	for _, spec := range params.Specs {
		header = append(header, spec.Name)
	}
	if err := l.w.Write(header); err != nil {
		return nil, fmt.Errorf("writing log header: %w", err)
	}
	l.w.Flush()
	return l, l.w.Error()
}

// record logs an evaluation of the applied (clamped) parameters. Lower
// fitness is better.
func (l *evalLog) record(fitness, survival, quality float64, applied []float64) error {
	l.count++
	if l.bestParams == nil || fitness < l.bestFitness {
		l.bestFitness = fitness
		l.bestParams = append([]float64(nil), applied...)
	}

	row := []string{
		strconv.Itoa(l.count),
		strconv.FormatFloat(fitness, 'f', 6, 64),
		strconv.FormatFloat(survival, 'f', 1, 64),
		strconv.FormatFloat(quality, 'f', 4, 64),
	}
	for _, v := range applied {
		row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
	}
	if err := l.w.Write(row); err != nil {
		return fmt.Errorf("writing log row: %w", err)
	}
	l.w.Flush()
	return l.w.Error()
}

// best returns the best parameters recorded so far, or nil.
func (l *evalLog) best() ([]float64, float64) {
	return l.bestParams, l.bestFitness
}
