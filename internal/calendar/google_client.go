package calendar

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caseflowhq/caseflow/pkg/logging"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Event is the provider-neutral payload pushed to a user's calendar.
type Event struct {
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
}

// EventClient performs single-event operations against one user's external
// calendar. Implementations map provider failures onto the package's error
// taxonomy: ErrAuth, ErrEventNotFound, anything else is transient.
type EventClient interface {
	CreateEvent(ctx context.Context, conn *Connection, ev Event) (string, error)
	UpdateEvent(ctx context.Context, conn *Connection, eventID string, ev Event) error
	DeleteEvent(ctx context.Context, conn *Connection, eventID string) error
}

// GoogleClient talks to the Google Calendar API with per-user OAuth tokens.
type GoogleClient struct {
	oauth  *oauth2.Config
	logger *logging.Logger
}

var _ EventClient = (*GoogleClient)(nil)

// NewGoogleClient builds a client for the given OAuth application credentials.
func NewGoogleClient(clientID, clientSecret, redirectURL string, logger *logging.Logger) *GoogleClient {
	if logger == nil {
		logger = logging.Default()
	}
	return &GoogleClient{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes: []string{
				gcal.CalendarEventsScope,
				docs.DocumentsScope,
			},
			Endpoint: google.Endpoint,
		},
		logger: logger,
	}
}

// AuthCodeURL returns the consent URL for the connect flow. Offline access is
// requested so a refresh token is issued.
func (c *GoogleClient) AuthCodeURL(state string) string {
	return c.oauth.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

// Exchange swaps an authorization code for a token bundle.
func (c *GoogleClient) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	tok, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("calendar: oauth exchange failed: %w", err)
	}
	return tok, nil
}

// TokenSource returns a refreshing token source for a stored connection.
func (c *GoogleClient) TokenSource(ctx context.Context, conn *Connection) oauth2.TokenSource {
	return c.oauth.TokenSource(ctx, &oauth2.Token{
		AccessToken:  conn.AccessToken,
		RefreshToken: conn.RefreshToken,
		Expiry:       conn.TokenExpiry,
	})
}

// PrimaryCalendarEmail resolves the account email behind a token. Google uses
// the account email as the primary calendar's ID.
func (c *GoogleClient) PrimaryCalendarEmail(ctx context.Context, tok *oauth2.Token) (string, error) {
	svc, err := gcal.NewService(ctx, option.WithTokenSource(c.oauth.TokenSource(ctx, tok)))
	if err != nil {
		return "", classifyGoogleErr(err)
	}
	cal, err := svc.Calendars.Get("primary").Context(ctx).Do()
	if err != nil {
		return "", classifyGoogleErr(err)
	}
	return cal.Id, nil
}

// CreateEvent inserts an event into the user's primary calendar and returns
// the ID Google assigned.
func (c *GoogleClient) CreateEvent(ctx context.Context, conn *Connection, ev Event) (string, error) {
	svc, err := c.service(ctx, conn)
	if err != nil {
		return "", err
	}
	created, err := svc.Events.Insert("primary", toGoogleEvent(ev)).Context(ctx).Do()
	if err != nil {
		return "", classifyGoogleErr(err)
	}
	return created.Id, nil
}

// UpdateEvent replaces an existing event.
func (c *GoogleClient) UpdateEvent(ctx context.Context, conn *Connection, eventID string, ev Event) error {
	svc, err := c.service(ctx, conn)
	if err != nil {
		return err
	}
	if _, err := svc.Events.Update("primary", eventID, toGoogleEvent(ev)).Context(ctx).Do(); err != nil {
		return classifyGoogleErr(err)
	}
	return nil
}

// DeleteEvent removes an event from the user's calendar.
func (c *GoogleClient) DeleteEvent(ctx context.Context, conn *Connection, eventID string) error {
	svc, err := c.service(ctx, conn)
	if err != nil {
		return err
	}
	if err := svc.Events.Delete("primary", eventID).Context(ctx).Do(); err != nil {
		return classifyGoogleErr(err)
	}
	return nil
}

func (c *GoogleClient) service(ctx context.Context, conn *Connection) (*gcal.Service, error) {
	svc, err := gcal.NewService(ctx, option.WithTokenSource(c.TokenSource(ctx, conn)))
	if err != nil {
		return nil, classifyGoogleErr(err)
	}
	return svc, nil
}

func toGoogleEvent(ev Event) *gcal.Event {
	return &gcal.Event{
		Summary:     ev.Summary,
		Description: ev.Description,
		Location:    ev.Location,
		Start: &gcal.EventDateTime{
			DateTime: ev.Start.UTC().Format(time.RFC3339),
			TimeZone: "UTC",
		},
		End: &gcal.EventDateTime{
			DateTime: ev.End.UTC().Format(time.RFC3339),
			TimeZone: "UTC",
		},
	}
}

// eventFromAppointment builds the calendar payload for an appointment.
func eventFromAppointment(a *Appointment) Event {
	summary := "Session"
	if a.ClientName != "" {
		summary = "Session: " + a.ClientName
	}
	description := a.Notes
	if a.Status != "" {
		if description != "" {
			description += "\n"
		}
		description += "Status: " + a.Status
	}
	return Event{
		Summary:     summary,
		Description: description,
		Location:    a.Location,
		Start:       a.Start,
		End:         a.Start.Add(a.Duration),
	}
}

// classifyGoogleErr maps Google API failures onto the package taxonomy.
// 401/403 become ErrAuth (except 403 rate limits, which stay transient),
// 404/410 become ErrEventNotFound, everything else passes through as a
// transient failure.
func classifyGoogleErr(err error) error {
	if err == nil {
		return nil
	}

	var rErr *oauth2.RetrieveError
	if errors.As(err, &rErr) {
		return fmt.Errorf("%w: token refresh rejected: %v", ErrAuth, rErr)
	}

	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		switch gErr.Code {
		case 401:
			return fmt.Errorf("%w: %s", ErrAuth, gErr.Message)
		case 403:
			if isRateLimited(gErr) {
				return err
			}
			return fmt.Errorf("%w: %s", ErrAuth, gErr.Message)
		case 404, 410:
			return fmt.Errorf("%w (status %d)", ErrEventNotFound, gErr.Code)
		}
	}
	return err
}

func isRateLimited(gErr *googleapi.Error) bool {
	for _, item := range gErr.Errors {
		if strings.Contains(item.Reason, "ateLimit") {
			return true
		}
	}
	return false
}
