package entity

// State снимок состояния сессии для подписчиков и ответов API
type State struct {
	SessionID      string          `json:"session_id"`
	HasImage       bool            `json:"has_image"`
	FileName       string          `json:"file_name,omitempty"`
	Preview        *Preview        `json:"preview,omitempty"`
	RemoteFilename string          `json:"remote_filename,omitempty"`
	Viewport       Viewport        `json:"viewport"`
	Masks          []Mask          `json:"masks"`
	SelectedMasks  []int64         `json:"selected_masks"`
	AppliedColors  map[int64]Color `json:"applied_colors"`
	Processing     bool            `json:"processing"`
	Progress       int             `json:"progress"`
	Error          string          `json:"error,omitempty"`
	Notice         string          `json:"notice,omitempty"`
	Downloaded     bool            `json:"downloaded"`
	Step           Step            `json:"current_step"`
}

// IsSelected сообщает, выбрана ли маска
func (s State) IsSelected(id int64) bool {
	for _, selected := range s.SelectedMasks {
		if selected == id {
			return true
		}
	}
	return false
}

// StepStatus отметка этапа для индикатора
type StepStatus struct {
	Step      Step `json:"step"`
	Completed bool `json:"completed"`
	Current   bool `json:"current"`
}

// Status сводка для индикатора прогресса
type Status struct {
	Steps      []StepStatus `json:"steps"`
	Progress   int          `json:"progress"`
	Processing bool         `json:"processing"`
	Error      string       `json:"error,omitempty"`
	Notice     string       `json:"notice,omitempty"`
	Masks      int          `json:"masks"`
	Selected   int          `json:"selected"`
	Applied    int          `json:"applied"`
}

// Status строит сводку по снимку
func (s State) Status() Status {
	done := map[Step]bool{
		StepUpload:   s.HasImage,
		StepSelect:   len(s.Masks) > 0,
		StepColor:    len(s.AppliedColors) > 0,
		StepDownload: s.Downloaded,
	}
	steps := make([]StepStatus, 0, len(done))
	for _, step := range Steps() {
		steps = append(steps, StepStatus{Step: step, Completed: done[step], Current: step == s.Step})
	}
	return Status{
		Steps:      steps,
		Progress:   s.Progress,
		Processing: s.Processing,
		Error:      s.Error,
		Notice:     s.Notice,
		Masks:      len(s.Masks),
		Selected:   len(s.SelectedMasks),
		Applied:    len(s.AppliedColors),
	}
}
