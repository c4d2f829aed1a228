package cases

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body any) error
	GET(path string) error
	GetResponseField(field string) (any, error)
	Remember(name, value string)
	Expand(s string) string
}

var ticketFormat = regexp.MustCompile(`^TIKET-[0-9]{4}-[A-Z0-9]{9}$`)

// RegisterSteps registers public intake and tracking steps
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &casesSteps{tc: tc}
	ctx.Step(`^I submit an anonymous report from "([^"]*)"$`, steps.submitAnonymous)
	ctx.Step(`^I submit a report from "([^"]*)" named "([^"]*)"$`, steps.submitNamed)
	ctx.Step(`^I submit a report without a contact$`, steps.submitWithoutContact)
	ctx.Step(`^the ticket code should match the public format$`, steps.ticketShouldMatchFormat)
	ctx.Step(`^I track the ticket "([^"]*)"$`, steps.track)
	ctx.Step(`^I track the ticket "([^"]*)" in lower case$`, steps.trackLowerCase)
}

type casesSteps struct {
	tc TestContext
}

func report(location, name, contact string) map[string]any {
	return map[string]any{
		"category_id":       3,
		"reporter_status":   "Saksi",
		"reporter_name":     name,
		"reporter_contact":  contact,
		"incident_location": location,
		"chronology":        "Anak tetangga sering dipukul pada malam hari",
	}
}

func (s *casesSteps) submit(body map[string]any) error {
	if err := s.tc.POST("/api/laporan", body); err != nil {
		return err
	}
	if v, err := s.tc.GetResponseField("ticket_code"); err == nil {
		s.tc.Remember("ticket", fmt.Sprint(v))
	}
	return nil
}

func (s *casesSteps) submitAnonymous(ctx context.Context, location string) error {
	return s.submit(report(location, "", "081234567890"))
}

func (s *casesSteps) submitNamed(ctx context.Context, location, name string) error {
	return s.submit(report(location, name, "081234567890"))
}

func (s *casesSteps) submitWithoutContact(ctx context.Context) error {
	return s.submit(report("Desa A", "", ""))
}

func (s *casesSteps) ticketShouldMatchFormat(ctx context.Context) error {
	v, err := s.tc.GetResponseField("ticket_code")
	if err != nil {
		return err
	}
	if code := fmt.Sprint(v); !ticketFormat.MatchString(code) {
		return fmt.Errorf("ticket code %q does not match the public format", code)
	}
	return nil
}

func (s *casesSteps) track(ctx context.Context, ticket string) error {
	return s.tc.GET("/api/laporan/lacak/" + ticket)
}

func (s *casesSteps) trackLowerCase(ctx context.Context, ticket string) error {
	return s.tc.GET("/api/laporan/lacak/" + strings.ToLower(s.tc.Expand(ticket)))
}
