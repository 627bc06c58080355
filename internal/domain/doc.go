// Package domain implements the Argo float dataset transformations: type
// normalization, profile identifiers, data-mode reconciliation and the
// point/profile reshaping.
//
// # Data Source
//
// Argo floats are autonomous profilers that drift at depth and surface every
// few days, measuring pressure, temperature, salinity and, on biogeochemical
// floats, dissolved oxygen along the way. Each Data Assembly Center (DAC)
// publishes one multi-profile file per float at
// <root>/<dac>/<wmo>/<wmo>_prof.nc. The transformations here operate on the
// in-memory [dataset.Dataset]; reading and writing files is the job of the
// netcdf adapter.
//
// # Argo Data Conventions
//
// Structural forms:
//
//	point    one "index" dimension, one record per measurement.
//	profile  N_PROF x N_LEVELS, one row per profile, padded with fill values.
//
// Text encoding:
//
//	Character arrays arrive as untyped text (Kind Object) and are normalized
//	by [CastTypes]. PLATFORM_NUMBER and CYCLE_NUMBER end up as integers,
//	DATA_MODE and DIRECTION as one-letter strings.
//
// Dates:
//
//	REFERENCE_DATE_TIME, DATE_CREATION, DATE_UPDATE and HISTORY_DATE are packed
//	"YYYYMMDDHHMISS" strings flagged by a conventions attribute. Blank values
//	become not-a-time (the zero time.Time). SCIENTIFIC_CALIB_DATE uses the
//	same packing without the attribute. JULD is kept numeric (days since
//	1950-01-01).
//
// Quality flags:
//
//	<PARAM>_QC variables hold one-character flags "0".."9". Real files also
//	carry " ", "n", "   " and "nan"; these are read as flag 0 before the
//	integer conversion. PROFILE_<PARAM>_QC are per-profile letter grades
//	(A..F) and stay text.
//
// Data modes:
//
//	R  real time, <PARAM> is authoritative.
//	A  real time adjusted, <PARAM>_ADJUSTED is authoritative.
//	D  delayed mode, <PARAM>_ADJUSTED is authoritative, with <PARAM> used
//	   where no adjustment was computed.
//
// Fill values:
//
//	text " ", integers 99999, floats NaN, timestamps not-a-time.
//
// # Profile Identifiers
//
// A profile is identified by sign*(platform*100000 + cycle) where the sign is
// negative for descending profiles. Both fields must be below 100000.
// Identifiers encoded without a direction are positive and decode as
// Ascending; see [EncodeUID].
//
// # History
//
// Every transformation appends "<RFC3339 time> <description>" to the
// "history" global attribute. The time comes from a package clock that tests
// replace through [SetClock].
package domain
