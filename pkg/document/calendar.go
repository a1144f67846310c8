package document

import (
	"io"
	"time"

	ics "github.com/arran4/golang-ical"
)

// CourseEvent 日历中的一门课程，按起止日期生成全天事件
type CourseEvent struct {
	CourseID    string
	Code        string
	Name        string
	Description string
	Start       time.Time
	End         time.Time // 课程最后一天（含）
}

// CourseCalendar 将课程写为 iCalendar，一门课程对应一个 VEVENT
func (r *Renderer) CourseCalendar(w io.Writer, name string, events []CourseEvent, stamp time.Time) error {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//school-records//course calendar//EN")
	cal.SetXWRCalName(name)

	for _, e := range events {
		event := cal.AddEvent(e.CourseID + "@school-records")
		event.SetDtStampTime(stamp)
		event.SetAllDayStartAt(e.Start)
		// DTEND 为开区间，取最后一天的次日
		event.SetAllDayEndAt(e.End.AddDate(0, 0, 1))
		event.SetSummary(e.Code + " " + e.Name)
		if e.Description != "" {
			event.SetDescription(e.Description)
		}
		event.SetStatus(ics.ObjectStatusConfirmed)
	}

	return cal.SerializeTo(w)
}
