package workshop

import "lewa-workshop/internal/database/models"

// transitions lists the legal edges of the job-card lifecycle. The
// reassignment edges (back to assigned) are included; invoiced is terminal.
var transitions = map[models.JobStatus][]models.JobStatus{
	models.StatusPending: {
		models.StatusAssigned,
		models.StatusCompleted,
	},
	models.StatusAssigned: {
		models.StatusAssigned,
		models.StatusInProgress,
		models.StatusWaitingForParts,
		models.StatusAssessmentRequested,
		models.StatusOnHold,
		models.StatusCompleted,
	},
	models.StatusInProgress: {
		models.StatusWaitingForParts,
		models.StatusAssessmentRequested,
		models.StatusOnHold,
		models.StatusCompleted,
	},
	models.StatusWaitingForParts: {
		models.StatusAssigned,
		models.StatusInProgress,
		models.StatusCompleted,
	},
	models.StatusAssessmentRequested: {
		models.StatusInProgress,
		models.StatusCompleted,
	},
	models.StatusOnHold: {
		models.StatusInProgress,
		models.StatusCompleted,
	},
	models.StatusCompleted: {
		models.StatusInvoiced,
	},
	models.StatusInvoiced: {},
}

// reassignable is the set of statuses from which the assign operation may
// run, including re-running it on an already assigned card.
var reassignable = map[models.JobStatus]bool{
	models.StatusPending:         true,
	models.StatusAssigned:        true,
	models.StatusWaitingForParts: true,
}

// directTargets are the statuses the generic status update may set.
// completed and invoiced are excluded: Complete stamps completed_at and
// GenerateInvoice creates the invoice row, so each owns its own transition.
var directTargets = map[models.JobStatus]bool{
	models.StatusAssigned:            true,
	models.StatusInProgress:          true,
	models.StatusWaitingForParts:     true,
	models.StatusAssessmentRequested: true,
	models.StatusOnHold:              true,
}

func ValidStatus(s models.JobStatus) bool {
	_, ok := transitions[s]
	return ok
}

func CanTransition(from, to models.JobStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func CanReassign(from models.JobStatus) bool {
	return reassignable[from]
}

func CanSetDirectly(to models.JobStatus) bool {
	return directTargets[to]
}

// IsTerminal reports whether no further work may happen on the card.
// completed still permits invoicing, so only invoiced is terminal here.
func IsTerminal(s models.JobStatus) bool {
	return s == models.StatusInvoiced
}
