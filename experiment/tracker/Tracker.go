// Package tracker implements Trackers, which record the scalar metrics
// of an experiment and save them once the experiment is done
package tracker

import (
	"encoding/gob"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Tracker keeps track of experiment data and saves the data after the
// experiment has finished
type Tracker interface {
	// Track records the value of the metric tag at a global step
	Track(tag string, value float64, step int)

	// Save writes all tracked data
	Save() error
}

// Series is the history of a single metric
type Series struct {
	Tag    string
	Steps  []int
	Values []float64
}

// Len returns the number of points in the series
func (s *Series) Len() int {
	return len(s.Values)
}

// series collects the Series of each tracked tag
type series map[string]*Series

func (s series) add(tag string, value float64, step int) {
	data, ok := s[tag]
	if !ok {
		data = &Series{Tag: tag}
		s[tag] = data
	}
	data.Steps = append(data.Steps, step)
	data.Values = append(data.Values, value)
}

func (s series) tags() []string {
	tags := make([]string, 0, len(s))
	for tag := range s {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// filename converts a tag such as losses/qf1_loss into a file name
func filename(tag, extension string) string {
	return strings.ReplaceAll(tag, "/", "_") + extension
}

// LoadData loads the Series saved by a Gob Tracker
func LoadData(filename string) (Series, error) {
	file, err := os.Open(filename)
	if err != nil {
		return Series{}, fmt.Errorf("loadData: could not open data file: %w",
			err)
	}
	defer file.Close()

	var data Series
	if err := gob.NewDecoder(file).Decode(&data); err != nil {
		return Series{}, fmt.Errorf("loadData: could not decode data: %w",
			err)
	}
	return data, nil
}

// multi fans out to several Trackers
type multi []Tracker

// Multi returns a Tracker that tracks with all of trackers
func Multi(trackers ...Tracker) Tracker {
	return multi(trackers)
}

// Track tracks the value with every Tracker
func (m multi) Track(tag string, value float64, step int) {
	for _, t := range m {
		t.Track(tag, value, step)
	}
}

// Save saves every Tracker, returning the first error
func (m multi) Save() error {
	for _, t := range m {
		if err := t.Save(); err != nil {
			return err
		}
	}
	return nil
}
