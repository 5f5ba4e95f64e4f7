package synth

import (
	"github.com/tensorplex-labs/clevr-action/internal/program"
)

type Question struct {
	Split               string         `json:"split"`
	ImageIndex          int            `json:"image_index"`
	ImageFilename       string         `json:"image_filename"`
	QuestionIndex       int            `json:"question_index"`
	Question            string         `json:"question"`
	Answer              any            `json:"answer"`
	Program             []program.Step `json:"program"`
	TemplateFilename    string         `json:"template_filename"`
	QuestionFamilyIndex int            `json:"question_family_index"`
}

type Info struct {
	Date      string `json:"date"`
	Version   string `json:"version"`
	Split     string `json:"split"`
	License   string `json:"license"`
	DatasetID string `json:"dataset_id"`
	Seed      uint64 `json:"seed"`
}

type File struct {
	Info      Info       `json:"info"`
	Questions []Question `json:"questions"`
}
