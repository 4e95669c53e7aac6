package models

import "time"

// Clazz represents a class
type Clazz struct {
	ID   string `json:"id"`   // Unique class ID
	Name string `json:"name"` // Class name
}

// Student represents a student on a class roster
type Student struct {
	ID      string `json:"id"`      // Unique student ID (e.g., student number)
	Name    string `json:"name"`    // Display name, used as the sampling token
	ClassID string `json:"classId"` // ID of the class the student belongs to
}

// Subject identifies one of the three fixed exam subjects
type Subject string

const (
	SubjectChinese Subject = "國文"
	SubjectEnglish Subject = "英文"
	SubjectMath    Subject = "數學"
)

// Subjects lists the exam subjects in table column order
var Subjects = [3]Subject{SubjectChinese, SubjectEnglish, SubjectMath}

// Score bounds, inclusive
const (
	MinScore = 50
	MaxScore = 100
)

// StudentRecord pairs a sampled name with one score per subject
type StudentRecord struct {
	Name    string `json:"name"`
	Chinese int    `json:"chinese"`
	English int    `json:"english"`
	Math    int    `json:"math"`
}

// Scores returns the three scores in Subjects order.
func (r StudentRecord) Scores() [3]int {
	return [3]int{r.Chinese, r.English, r.Math}
}

// Total is the sum of the three scores.
func (r StudentRecord) Total() int {
	return r.Chinese + r.English + r.Math
}

// Average is the arithmetic mean of the record's own three scores.
func (r StudentRecord) Average() float64 {
	return float64(r.Total()) / float64(len(Subjects))
}

// RankedStudent names a record together with its per-record average
type RankedStudent struct {
	Name    string  `json:"name"`
	Average float64 `json:"average"`
}

// Summary is the class-wide analysis of a set of records
type Summary struct {
	ClassAverage float64       `json:"classAverage"` // Mean over every individual score
	Top          RankedStudent `json:"top"`
	Bottom       RankedStudent `json:"bottom"`
}

// Report is a persisted score run for a class
type Report struct {
	ID        string          `json:"id"`
	ClassID   string          `json:"classId"`
	Seed      uint64          `json:"seed"`
	CreatedAt time.Time       `json:"createdAt"`
	Records   []StudentRecord `json:"records"`
	Summary   Summary         `json:"summary"`
}
