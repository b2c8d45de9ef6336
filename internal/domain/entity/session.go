package entity

import "sort"

// NoticeDownloadReady уведомление об успешной выгрузке
const NoticeDownloadReady = "download ready"

// Session состояние сценария одного пользователя.
// Не потокобезопасна: доступ сериализует сервис сценария.
type Session struct {
	ID             string
	File           *ImageFile
	Preview        *Preview
	RemoteFilename string
	Viewport       Viewport
	Masks          []Mask
	Selected       map[int64]struct{}
	AppliedColors  map[int64]Color
	Processing     bool
	Progress       int
	Error          string
	Notice         string
	Downloaded     bool
	Step           Step
	Generation     uint64 // растёт при смене изображения и сбросе
	lastMaskID     int64
}

// NewSession создаёт пустую сессию на этапе загрузки
func NewSession(id string) *Session {
	return &Session{
		ID:            id,
		Selected:      make(map[int64]struct{}),
		AppliedColors: make(map[int64]Color),
		Step:          StepUpload,
	}
}

// AdvanceTo двигает этап только вперёд
func (s *Session) AdvanceTo(step Step) {
	for s.Step < step {
		s.Step++
	}
}

// SetProgress устанавливает прогресс в пределах [0, 100]
func (s *Session) SetProgress(p int) {
	switch {
	case p < 0:
		p = 0
	case p > 100:
		p = 100
	}
	s.Progress = p
}

// Begin отмечает начало удалённого запроса
func (s *Session) Begin() {
	s.Processing = true
	s.Progress = 0
	s.Error = ""
	s.Notice = ""
}

// Fail завершает запрос с ошибкой, этап не меняется
func (s *Session) Fail(err error) {
	s.Processing = false
	s.Error = err.Error()
}

// Complete завершает запрос успешно
func (s *Session) Complete() {
	s.Processing = false
	s.Progress = 100
}

// AcceptImage принимает новое изображение и сбрасывает маски прежнего.
func (s *Session) AcceptImage(file ImageFile, preview *Preview, remoteFilename string) {
	s.File = &file
	s.Preview = preview
	s.RemoteFilename = remoteFilename
	if preview != nil {
		s.Viewport.ImageWidth = preview.Width
		s.Viewport.ImageHeight = preview.Height
	}
	s.Masks = nil
	s.Selected = make(map[int64]struct{})
	s.AppliedColors = make(map[int64]Color)
	s.Downloaded = false
	s.AdvanceTo(StepSelect)
}

// ClearPreview убирает только локальное превью
func (s *Session) ClearPreview() {
	s.Preview = nil
}

// AppendMask добавляет маску с новым идентификатором
func (s *Session) AppendMask(outline []Point, suggested Color) Mask {
	s.lastMaskID++
	m := Mask{ID: s.lastMaskID, Outline: append([]Point(nil), outline...), Color: suggested}
	s.Masks = append(s.Masks, m)
	s.AdvanceTo(StepColor)
	return m
}

// AppendFound добавляет маску, найденную сервисом, сохраняя её удалённый идентификатор.
// Локальный идентификатор выдаётся заново.
func (s *Session) AppendFound(found Mask) Mask {
	m := s.AppendMask(found.Outline, found.Color)
	m.RemoteID = found.RemoteID
	s.Masks[len(s.Masks)-1].RemoteID = found.RemoteID
	return m
}

// HasMask сообщает, создана ли маска с таким идентификатором
func (s *Session) HasMask(id int64) bool {
	for _, m := range s.Masks {
		if m.ID == id {
			return true
		}
	}
	return false
}

// ToggleSelection переключает выбор маски
func (s *Session) ToggleSelection(id int64) (selected bool, err error) {
	if !s.HasMask(id) {
		return false, ErrUnknownMask
	}
	if _, ok := s.Selected[id]; ok {
		delete(s.Selected, id)
		return false, nil
	}
	s.Selected[id] = struct{}{}
	return true, nil
}

// ApplyColor назначает цвет всем выбранным маскам
func (s *Session) ApplyColor(c Color) (int, error) {
	if len(s.Selected) == 0 {
		return 0, ErrNoSelection
	}
	for id := range s.Selected {
		s.AppliedColors[id] = c
	}
	s.Error = ""
	s.AdvanceTo(StepDownload)
	return len(s.Selected), nil
}

// SelectedIDs возвращает выбранные маски по возрастанию
func (s *Session) SelectedIDs() []int64 {
	ids := make([]int64, 0, len(s.Selected))
	for id := range s.Selected {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Snapshot возвращает неизменяемую копию состояния
func (s *Session) Snapshot() State {
	st := State{
		SessionID:      s.ID,
		HasImage:       s.File != nil,
		Preview:        s.Preview,
		RemoteFilename: s.RemoteFilename,
		Viewport:       s.Viewport,
		Masks:          make([]Mask, len(s.Masks)),
		SelectedMasks:  s.SelectedIDs(),
		AppliedColors:  make(map[int64]Color, len(s.AppliedColors)),
		Processing:     s.Processing,
		Progress:       s.Progress,
		Error:          s.Error,
		Notice:         s.Notice,
		Downloaded:     s.Downloaded,
		Step:           s.Step,
	}
	if s.File != nil {
		st.FileName = s.File.Name
	}
	for i, m := range s.Masks {
		st.Masks[i] = cloneMask(m)
	}
	for id, c := range s.AppliedColors {
		st.AppliedColors[id] = c
	}
	return st
}
