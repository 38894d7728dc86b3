// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/gomlx/cifar/pkg/data/cifar"
)

var (
	headerRowStyle = lipgloss.NewStyle().Reverse(true).
			Padding(0, 2, 0, 2).Align(lipgloss.Center)

	oddRowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFF")).
			PaddingLeft(1).PaddingRight(1)
	evenRowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#999")).
			PaddingLeft(1).PaddingRight(1)

	titleStyle = lipgloss.NewStyle().Bold(true).Padding(1, 4, 1, 4)
)

func newPlainTable(withHeader bool) *lgtable.Table {
	return lgtable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("99"))).
		StyleFunc(func(row, col int) (s lipgloss.Style) {
			if withHeader && row == lgtable.HeaderRow {
				s = headerRowStyle
				return
			}
			switch {
			case row%2 == 0:
				s = oddRowStyle
			default:
				s = evenRowStyle
			}
			if col == 0 {
				s = s.Align(lipgloss.Right)
			} else {
				s = s.Align(lipgloss.Left)
			}
			return
		})
}

// datasetRows describes a split of the dataset, or says it was not loaded.
func datasetRows(table *lgtable.Table, split string, ds *cifar.Dataset) {
	if ds == nil {
		table.Row(split, "not loaded")
		return
	}
	table.Row(split+" images", humanize.Comma(int64(ds.NumImages())))
	table.Row(split+" shape", fmt.Sprintf("%v", ds.Images.Shape))
	table.Row(split+" memory", humanize.Bytes(uint64(len(ds.Images.Data)*4)))
}

func printSummary(loader *cifar.Loader, train, test *cifar.Dataset) {
	cfg := loader.Config()
	fmt.Println(titleStyle.Render("Summary"))
	table := newPlainTable(false)
	table.Row("source", cfg.Source)
	table.Row("url", loader.URL())
	table.Row("directory", loader.Dir())
	table.Row("image geometry", cfg.Geometry().String())
	table.Row("# classes", humanize.Comma(int64(cfg.NumClasses)))
	datasetRows(table, "train", train)
	datasetRows(table, "test", test)
	fmt.Println(table.Render())
}

func printClasses(names []string, train, test *cifar.Dataset) {
	fmt.Println(titleStyle.Render("Classes"))
	table := newPlainTable(true)
	table.Headers("Id", "Name", "# Train", "# Test")
	var trainCounts, testCounts []int
	if train != nil {
		trainCounts = train.ClassCounts()
	}
	if test != nil {
		testCounts = test.ClassCounts()
	}
	count := func(counts []int, classID int) string {
		if classID >= len(counts) {
			return "-"
		}
		return humanize.Comma(int64(counts[classID]))
	}
	for classID, name := range names {
		table.Row(fmt.Sprintf("%d", classID), name, count(trainCounts, classID), count(testCounts, classID))
	}
	fmt.Println(table.Render())
}
