package constants

/*
	Defines a set of base level
	constants and enums to be used
	throughout the variant-source
	service and its associated jobs.
*/
type StudyType string
type Aggregation string
