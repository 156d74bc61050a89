package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mind-engage/testforge/internal/document"
	"github.com/mind-engage/testforge/internal/extract"
	"github.com/mind-engage/testforge/internal/grading"
)

// transformOutput is also the key file read by `grade`.
type transformOutput struct {
	Tree           *document.Node    `json:"tree,omitempty"`
	Markup         *string           `json:"markup,omitempty"`
	Answers        []extract.Answer  `json:"answers"`
	Key            grading.AnswerKey `json:"key"`
	TotalQuestions int               `json:"totalQuestions"`
}

func newTransformCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "transform [file]",
		Short: "Transform an authoring tree (JSON) into its student form and answer key",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			root, err := document.Decode(data)
			if err != nil {
				return err
			}
			res := extract.Transform(root)
			return writeOutput(cmd, transformOutput{
				Tree:           res.Tree,
				Answers:        res.Answers,
				Key:            grading.CreateAnswerMapping(res.Answers),
				TotalQuestions: res.TotalQuestions,
			})
		},
	}
}

func newFlattenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "flatten [file]",
		Short: "Replace bracketed answers in rich-text markup with numbered blanks",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			markup, answers := extract.ExtractMarkup(string(data))
			return writeOutput(cmd, transformOutput{
				Markup:         &markup,
				Answers:        answers,
				Key:            grading.CreateAnswerMapping(answers),
				TotalQuestions: len(answers),
			})
		},
	}
}

func newGradeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grade",
		Short: "Grade a submission against the output of transform or flatten",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			keyPath, _ := cmd.Flags().GetString("key")
			subPath, _ := cmd.Flags().GetString("submission")
			maxDist, _ := cmd.Flags().GetInt("near-miss")

			var key transformOutput
			if err := readJSONFile(keyPath, &key); err != nil {
				return fmt.Errorf("key: %w", err)
			}
			var submitted map[string]string
			if err := readJSONFile(subPath, &submitted); err != nil {
				return fmt.Errorf("submission: %w", err)
			}
			g := grading.NewGrader(grading.WithMaxEditDistance(maxDist))
			return writeOutput(cmd, g.Grade(key.Answers, submitted))
		},
	}
	cmd.Flags().String("key", "", "transform/flatten output file")
	cmd.Flags().String("submission", "", `submission file: {"<question number>": "<answer>"}`)
	cmd.Flags().Int("near-miss", 1, "edit distance flagged as a near miss (0 disables)")
	_ = cmd.MarkFlagRequired("key")
	_ = cmd.MarkFlagRequired("submission")
	return cmd
}

// readInput reads the named file, or stdin when no file (or "-") is given.
func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(args[0])
}

func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func writeOutput(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
