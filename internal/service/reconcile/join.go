package reconcile

import (
	"cmp"
	"shopfloor-kpi/internal/constants"
	"shopfloor-kpi/internal/storage"
	"slices"
	"sort"
	"time"
)

// Sample is an info sample with the registration and stop reason attached.
type Sample struct {
	storage.InfoSample

	// End is the timestamp of the next sample of the same machine, zero for the last one.
	End time.Time

	Line       int
	Factory    int
	Registered bool

	ReasonID   *int
	ReasonName *string
	Equipment  *string
	Problem    *string
	Cause      *string
	OperatorID *string
	OSNumber   *string
}

// RegistrationIndex answers as-of lookups over registration history.
type RegistrationIndex struct {
	byMachine map[string][]storage.Registration
}

func NewRegistrationIndex(regs []storage.Registration) *RegistrationIndex {
	idx := &RegistrationIndex{byMachine: make(map[string][]storage.Registration)}
	for _, r := range regs {
		idx.byMachine[r.MachineID] = append(idx.byMachine[r.MachineID], r)
	}
	for _, list := range idx.byMachine {
		slices.SortStableFunc(list, func(a, b storage.Registration) int {
			return a.At.Compare(b.At)
		})
	}
	return idx
}

// AsOf returns the latest registration of machine whose timestamp is <= at.
// Registrations sharing the same timestamp resolve to the one read last.
func (idx *RegistrationIndex) AsOf(machine string, at time.Time) (storage.Registration, bool) {
	list := idx.byMachine[machine]
	i := sort.Search(len(list), func(i int) bool {
		return list[i].At.After(at)
	})
	if i == 0 {
		return storage.Registration{}, false
	}
	return list[i-1], true
}

// JoinRegistrations orders info samples per machine in time, links every sample to the
// next one and attaches the registration in force at that moment.
func JoinRegistrations(info []storage.InfoSample, idx *RegistrationIndex) []Sample {
	samples := make([]Sample, 0, len(info))
	for _, in := range info {
		samples = append(samples, Sample{InfoSample: in})
	}

	slices.SortStableFunc(samples, func(a, b Sample) int {
		if c := cmp.Compare(a.MachineID, b.MachineID); c != 0 {
			return c
		}
		return a.At.Compare(b.At)
	})

	for i := range samples {
		if i+1 < len(samples) && samples[i+1].MachineID == samples[i].MachineID {
			samples[i].End = samples[i+1].At
		}

		reg, ok := idx.AsOf(samples[i].MachineID, samples[i].At)
		if !ok {
			continue
		}
		samples[i].Line = reg.Line
		samples[i].Factory = reg.Factory
		samples[i].Registered = true
	}

	return samples
}

// JoinOccurrences attaches to every sample the earliest occurrence of the same machine
// that starts inside [sample.At, sample.End]. The last sample of a machine only takes an
// occurrence starting exactly at its timestamp.
func JoinOccurrences(samples []Sample, occurrences []storage.Occurrence) []Sample {
	byMachine := make(map[string][]storage.Occurrence)
	for _, o := range occurrences {
		byMachine[o.MachineID] = append(byMachine[o.MachineID], o)
	}
	for _, list := range byMachine {
		slices.SortStableFunc(list, func(a, b storage.Occurrence) int {
			return a.At.Compare(b.At)
		})
	}

	out := slices.Clone(samples)
	for i := range out {
		list := byMachine[out[i].MachineID]
		j := sort.Search(len(list), func(j int) bool {
			return !list[j].At.Before(out[i].At)
		})
		if j == len(list) {
			continue
		}

		end := out[i].End
		if end.IsZero() {
			end = out[i].At
		}
		if list[j].At.After(end) {
			continue
		}

		o := list[j]
		out[i].ReasonID = o.ReasonID
		out[i].ReasonName = o.ReasonName
		out[i].Equipment = o.Equipment
		out[i].Problem = o.Problem
		out[i].Cause = o.Cause
		out[i].OperatorID = o.OperatorID
		out[i].OSNumber = o.OSNumber
	}

	return out
}

// CorrectSelfTests turns an in-test sample into running when the previous sample of the
// same machine carries a scheduled-stop-like reason.
func CorrectSelfTests(samples []Sample) []Sample {
	out := slices.Clone(samples)
	for i := 1; i < len(out); i++ {
		prev := samples[i-1]
		if out[i].Status != storage.StatusInTest || prev.MachineID != out[i].MachineID {
			continue
		}
		if prev.ReasonID != nil && constants.BenignReasons[*prev.ReasonID] {
			out[i].Status = storage.StatusRunning
		}
	}
	return out
}
