package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ncruces/zenity"
	"github.com/rs/zerolog/log"
)

// ErrPickCanceled is returned when the user closes the folder dialog.
var ErrPickCanceled = errors.New("folder selection canceled")

// PromptForDirectory prompts the user interactively for a directory path.
// Returns the current directory if the user enters nothing.
func PromptForDirectory() string {
	return promptForDirectory(os.Stdin, os.Stdout)
}

func promptForDirectory(in io.Reader, out io.Writer) string {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}

	fmt.Fprintf(out, "Directory [%s]: ", cwd)

	reader := bufio.NewReader(in)
	input, err := reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && input != "") {
		log.Warn().Err(err).Msg("Failed to read input, using current directory")
		return cwd
	}

	input = strings.TrimSpace(input)
	if input == "" {
		return cwd
	}
	return input
}

// ChooseDirectory opens the folder dialog and falls back to a terminal prompt
// when no dialog can be shown. Canceling the dialog is not a fallback case.
func ChooseDirectory(title, start string) (string, error) {
	return chooseDirectory(title, start, PickDirectory, PromptForDirectory)
}

func chooseDirectory(title, start string, pick func(string, string) (string, error), prompt func() string) (string, error) {
	dir, err := pick(title, start)
	if err == nil || errors.Is(err, ErrPickCanceled) {
		return dir, err
	}
	log.Warn().Err(err).Msg("Folder dialog unavailable, asking on the terminal")
	return prompt(), nil
}

// PickDirectory opens a native folder dialog starting at start.
func PickDirectory(title, start string) (string, error) {
	opts := []zenity.Option{zenity.Directory(), zenity.Title(title)}
	if start != "" {
		opts = append(opts, zenity.Filename(start))
	}
	selected, err := zenity.SelectFile(opts...)
	if err != nil {
		if errors.Is(err, zenity.ErrCanceled) {
			return "", ErrPickCanceled
		}
		return "", fmt.Errorf("folder dialog failed: %w", err)
	}
	return selected, nil
}
