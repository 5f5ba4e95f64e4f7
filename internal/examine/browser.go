package examine

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tensorplex-labs/clevr-action/internal/synth"
)

var (
	headStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF"))
	answerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B"))
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
)

// questionItem implements list.Item.
type questionItem struct {
	q synth.Question
}

func (i questionItem) Title() string { return i.q.Question }
func (i questionItem) Description() string {
	return fmt.Sprintf("%s · %s · %s", i.q.ImageFilename, answer(i.q.Answer), i.q.TemplateFilename)
}
func (i questionItem) FilterValue() string {
	return i.q.ImageFilename + " " + answer(i.q.Answer) + " " + i.q.Question
}

// Browser is a bubbletea model listing questions; enter shows the program
// of the selected one.
type Browser struct {
	list   list.Model
	detail bool
	width  int
	height int
}

func NewBrowser(f *synth.File) *Browser {
	items := make([]list.Item, len(f.Questions))
	for i, q := range f.Questions {
		items[i] = questionItem{q: q}
	}
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = fmt.Sprintf("%d questions · %s", len(f.Questions), f.Info.Split)
	return &Browser{list: l}
}

func (b *Browser) Init() tea.Cmd { return nil }

func (b *Browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		b.width, b.height = msg.Width, msg.Height
		b.list.SetSize(max(0, msg.Width-4), max(0, msg.Height-4))
		return b, nil

	case tea.KeyMsg:
		if b.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "ctrl+c":
			return b, tea.Quit
		case "q":
			if !b.detail {
				return b, tea.Quit
			}
			b.detail = false
			return b, nil
		case "enter":
			if _, ok := b.Selected(); ok {
				b.detail = !b.detail
			}
			return b, nil
		case "esc":
			if b.detail {
				b.detail = false
				return b, nil
			}
		}
	}

	if b.detail {
		return b, nil
	}
	var cmd tea.Cmd
	b.list, cmd = b.list.Update(msg)
	return b, cmd
}

// Selected returns the highlighted question.
func (b *Browser) Selected() (synth.Question, bool) {
	it, ok := b.list.SelectedItem().(questionItem)
	if !ok {
		return synth.Question{}, false
	}
	return it.q, true
}

func (b *Browser) View() string {
	if !b.detail {
		return b.list.View()
	}
	q, _ := b.Selected()
	body := lipgloss.JoinVertical(lipgloss.Left,
		headStyle.Render(q.Question),
		answerStyle.Render(answer(q.Answer)),
		"",
		Trace(q.Program),
		"",
		dimStyle.Render(fmt.Sprintf("%s · family %d (%s) · question %d",
			q.ImageFilename, q.QuestionFamilyIndex, q.TemplateFilename, q.QuestionIndex)),
	)
	box := boxStyle
	if b.width > 0 {
		box = box.Width(max(20, b.width-4))
	}
	hint := dimStyle.Render("esc back · q back · ctrl+c quit")
	return lipgloss.JoinVertical(lipgloss.Left, box.Render(body), hint)
}
