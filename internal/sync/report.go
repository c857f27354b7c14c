package sync

// Section tallies one reconciliation pass. Created and Updated carry the
// touched event titles so the change notification mail can list them.
type Section struct {
	Created   []string
	Updated   []string
	Skipped   int
	Unchanged int
	Failed    int
}

func (s *Section) created(title string) { s.Created = append(s.Created, title) }
func (s *Section) updated(title string) { s.Updated = append(s.Updated, title) }

// Changed reports whether this pass wrote anything.
func (s Section) Changed() bool {
	return len(s.Created) > 0 || len(s.Updated) > 0
}

// Report is the outcome of one full sync run.
type Report struct {
	Individual Section
	Summary    Section
}

// HasChanges reports whether any event was created or updated. The change
// notification mail is only sent when this is true.
func (r Report) HasChanges() bool {
	return r.Individual.Changed() || r.Summary.Changed()
}
