package types

// JobBoardType identifies a known ATS vendor hosting a job posting.
type JobBoardType string

const (
	// BoardGreenhouse is the Greenhouse ATS
	BoardGreenhouse JobBoardType = "greenhouse"
	// BoardLever is the Lever ATS
	BoardLever JobBoardType = "lever"
	// BoardWorkday is the Workday ATS
	BoardWorkday JobBoardType = "workday"
	// BoardLinkedIn is LinkedIn Easy Apply
	BoardLinkedIn JobBoardType = "linkedin"
	// BoardIndeed is Indeed Apply
	BoardIndeed JobBoardType = "indeed"
	// BoardOtherATS is any unrecognized application tracking system
	BoardOtherATS JobBoardType = "other_ats"
)
