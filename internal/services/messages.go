package services

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/peterssg513/willowandwater-sub001/internal/constants"
	"github.com/peterssg513/willowandwater-sub001/internal/models"
	"github.com/peterssg513/willowandwater-sub001/internal/utils"
)

// BusinessInfo holds the contact details rendered into messages.
type BusinessInfo struct {
	Name          string
	OwnerName     string
	OwnerEmail    string
	OwnerPhone    string
	BusinessPhone string
	ReviewURL     string
	Location      *time.Location
}

func (b BusinessInfo) loc() *time.Location {
	if b.Location == nil {
		return time.UTC
	}
	return b.Location
}

func (b BusinessInfo) phone() string {
	if b.BusinessPhone != "" {
		return b.BusinessPhone
	}
	return b.OwnerPhone
}

const emailHTML = `<!DOCTYPE html>
<html>
<head>
<style>
body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif; line-height: 1.6; color: #333333; background-color: #f6f5f1; margin: 0; padding: 0; }
.container { padding: 20px; max-width: 600px; margin: 20px auto; background-color: #ffffff; border: 1px solid #dddddd; border-radius: 8px; }
.header { font-size: 22px; font-weight: bold; color: #3d6b5a; margin-bottom: 15px; }
.footer { margin-top: 20px; font-size: 12px; color: #777777; text-align: center; }
ul { padding-left: 18px; }
</style>
</head>
<body>
<div class="container">
<p class="header">%s</p>
%s
<div class="footer">%s</div>
</div>
</body>
</html>`

func renderEmail(title string, paragraphs []string, footer string) string {
	var b strings.Builder
	for _, p := range paragraphs {
		b.WriteString("<p>")
		b.WriteString(strings.ReplaceAll(html.EscapeString(p), "\n", "<br>"))
		b.WriteString("</p>\n")
	}
	return fmt.Sprintf(emailHTML, html.EscapeString(title), b.String(), html.EscapeString(footer))
}

func dollars(cents int64) string {
	return fmt.Sprintf("$%.2f", float64(cents)/100.0)
}

func serviceDate(d time.Time) string {
	return d.Format("Monday, January 2")
}

func slotSuffix(slot string) string {
	if slot == "" {
		return ""
	}
	return " (" + slot + ")"
}

func ownerChannel(b BusinessInfo) models.ChannelType {
	switch {
	case b.OwnerEmail != "" && b.OwnerPhone != "":
		return models.ChannelBoth
	case b.OwnerPhone != "":
		return models.ChannelSMS
	default:
		return models.ChannelEmail
	}
}

func customerNotification(c *models.Customer, j *models.Job, ch models.ChannelType, template string) Notification {
	n := Notification{
		Channel:       ch,
		Template:      template,
		RecipientName: c.FullName(),
		Email:         c.Email,
		Phone:         c.Phone,
		CustomerID:    utils.Ptr(c.ID),
	}
	if j != nil {
		n.JobID = utils.Ptr(j.ID)
	}
	return n
}

func ownerNotification(b BusinessInfo, j *models.Job, template string) Notification {
	n := Notification{
		Channel:       ownerChannel(b),
		Template:      template,
		RecipientName: b.OwnerName,
		Email:         b.OwnerEmail,
		Phone:         b.OwnerPhone,
	}
	if j != nil {
		n.JobID = utils.Ptr(j.ID)
	}
	return n
}

func bookingConfirmedMessage(b BusinessInfo, c *models.Customer, j *models.Job) Notification {
	n := customerNotification(c, j, models.ChannelBoth, constants.TemplateBookingConfirmed)
	when := serviceDate(j.ScheduledDate) + slotSuffix(j.TimeSlot)
	n.Subject = fmt.Sprintf("Your %s cleaning is confirmed", b.Name)
	n.Text = fmt.Sprintf(
		"Hi %s, your cleaning with %s is confirmed for %s. Deposit received: %s. Remaining %s will be charged on the day of your clean.",
		c.FirstName, b.Name, when, dollars(j.DepositAmountCents), dollars(j.RemainingAmountCents),
	)
	n.HTML = renderEmail("Your cleaning is confirmed", []string{
		fmt.Sprintf("Hi %s,", c.FirstName),
		fmt.Sprintf("Thank you for booking with %s. We'll see you on %s.", b.Name, when),
		fmt.Sprintf("Address: %s, %s, %s %s", j.Address, j.City, j.State, j.ZipCode),
		fmt.Sprintf("Total: %s\nDeposit paid: %s\nDue on the day of your clean: %s",
			dollars(j.TotalPriceCents), dollars(j.DepositAmountCents), dollars(j.RemainingAmountCents)),
	}, b.Name)
	return n
}

func ownerNewBookingMessage(b BusinessInfo, c *models.Customer, j *models.Job) Notification {
	n := ownerNotification(b, j, constants.TemplateOwnerNewBooking)
	n.Channel = models.ChannelEmail
	n.Subject = fmt.Sprintf("New booking: %s on %s", c.FullName(), j.ScheduledDate.Format("Jan 2"))
	n.Text = fmt.Sprintf(
		"New %s booking from %s (%s, %s) for %s%s at %s, %s. %d sqft, %d bed, %.1f bath. Total %s, deposit %s.",
		j.Frequency, c.FullName(), c.Email, c.Phone,
		serviceDate(j.ScheduledDate), slotSuffix(j.TimeSlot), j.Address, j.ZipCode,
		j.Sqft, j.Bedrooms, j.Bathrooms, dollars(j.TotalPriceCents), dollars(j.DepositAmountCents),
	)
	n.HTML = renderEmail("New booking", []string{n.Text}, b.Name)
	return n
}

func ownerBookingReviewMessage(b BusinessInfo, c *models.Customer, j *models.Job) Notification {
	n := ownerNotification(b, j, constants.TemplateOwnerBookingReview)
	n.Subject = fmt.Sprintf("Booking needs review: %s on %s", c.FullName(), j.ScheduledDate.Format("Jan 2"))
	n.Text = fmt.Sprintf(
		"%s (%s, %s) paid a %s deposit for %s%s, but already has a cleaning booked that day. "+
			"The booking is on hold and will not be assigned or charged until you resolve it.",
		c.FullName(), c.Email, c.Phone, dollars(j.DepositAmountCents),
		serviceDate(j.ScheduledDate), slotSuffix(j.TimeSlot),
	)
	n.HTML = renderEmail(n.Subject, []string{n.Text}, b.Name)
	return n
}

// InstructionSheet is the human-readable job summary sent to a cleaner.
func InstructionSheet(j *models.Job, c *models.Customer) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Date: %s%s\n", serviceDate(j.ScheduledDate), slotSuffix(j.TimeSlot))
	fmt.Fprintf(&b, "Address: %s, %s, %s %s\n", j.Address, j.City, j.State, j.ZipCode)
	if c != nil {
		fmt.Fprintf(&b, "Customer: %s (%s)\n", c.FullName(), c.Phone)
	}
	fmt.Fprintf(&b, "Home: %d sqft, %d bedrooms, %.1f bathrooms\n", j.Sqft, j.Bedrooms, j.Bathrooms)
	fmt.Fprintf(&b, "Service: %s clean\n", j.Frequency)
	fmt.Fprintf(&b, "Estimated time: %.2f hours\n", j.EstimatedHours)
	if j.Notes != "" {
		fmt.Fprintf(&b, "Notes: %s\n", j.Notes)
	}
	return b.String()
}

func cleanerAssignmentMessage(b BusinessInfo, cl *models.Cleaner, j *models.Job, sheet string) Notification {
	n := Notification{
		Channel:       models.ChannelEmail,
		Template:      constants.TemplateCleanerAssignment,
		RecipientName: cl.FullName(),
		Email:         cl.Email,
		Phone:         cl.Phone,
		CleanerID:     utils.Ptr(cl.ID),
		JobID:         utils.Ptr(j.ID),
		Subject:       fmt.Sprintf("New job: %s", serviceDate(j.ScheduledDate)),
	}
	n.Text = fmt.Sprintf("Hi %s, you have a new cleaning assigned.\n\n%s", cl.FirstName, sheet)
	n.HTML = renderEmail("New cleaning assigned", []string{
		fmt.Sprintf("Hi %s,", cl.FirstName),
		"You have a new cleaning assigned:",
		sheet,
	}, b.Name)
	return n
}

func manualAssignmentMessage(b BusinessInfo, j *models.Job) Notification {
	n := ownerNotification(b, j, constants.TemplateManualAssignment)
	n.Subject = "Manual cleaner assignment needed"
	n.Text = fmt.Sprintf(
		"No cleaner is available for the %s job on %s%s at %s %s. Please assign one manually.",
		j.Frequency, serviceDate(j.ScheduledDate), slotSuffix(j.TimeSlot), j.Address, j.ZipCode,
	)
	n.HTML = renderEmail(n.Subject, []string{n.Text}, b.Name)
	return n
}

func updateCardMessage(b BusinessInfo, c *models.Customer, j *models.Job) Notification {
	n := customerNotification(c, j, models.ChannelBoth, constants.TemplateUpdateCard)
	n.Subject = "Please update your payment method"
	n.Text = fmt.Sprintf(
		"Hi %s, we couldn't charge the remaining %s for your %s cleaning. Please call us at %s to update your card.",
		c.FirstName, dollars(j.RemainingAmountCents), serviceDate(j.ScheduledDate), b.phone(),
	)
	n.HTML = renderEmail(n.Subject, []string{
		fmt.Sprintf("Hi %s,", c.FirstName),
		fmt.Sprintf("We were unable to charge the remaining balance of %s for your cleaning on %s.",
			dollars(j.RemainingAmountCents), serviceDate(j.ScheduledDate)),
		fmt.Sprintf("Please call us at %s so we can update your payment method.", b.phone()),
	}, b.Name)
	return n
}

func paymentReceiptMessage(b BusinessInfo, c *models.Customer, j *models.Job, amountCents int64) Notification {
	n := customerNotification(c, j, models.ChannelSMS, constants.TemplatePaymentReceipt)
	n.Text = fmt.Sprintf(
		"%s: we received your payment of %s for your %s cleaning. Thank you!",
		b.Name, dollars(amountCents), serviceDate(j.ScheduledDate),
	)
	return n
}

func feedbackRequestMessage(b BusinessInfo, c *models.Customer, j *models.Job) Notification {
	n := customerNotification(c, j, models.ChannelSMS, constants.TemplateFeedbackRequest)
	n.Text = fmt.Sprintf(
		"Hi %s, thanks for choosing %s! How did we do today? Reply with a number from 1 (poor) to 5 (excellent).",
		c.FirstName, b.Name,
	)
	return n
}

func reviewRequestMessage(b BusinessInfo, c *models.Customer, j *models.Job) Notification {
	n := customerNotification(c, j, models.ChannelSMS, constants.TemplateReviewRequest)
	n.Text = fmt.Sprintf("Thank you, %s! We'd love a quick review: %s", c.FirstName, b.ReviewURL)
	if b.ReviewURL == "" {
		n.Text = fmt.Sprintf("Thank you, %s! We're so glad you enjoyed your clean.", c.FirstName)
	}
	return n
}

func complaintApologyMessage(b BusinessInfo, c *models.Customer, j *models.Job) Notification {
	n := customerNotification(c, j, models.ChannelSMS, constants.TemplateComplaintApology)
	n.Text = fmt.Sprintf(
		"We're sorry your clean didn't meet expectations, %s. %s will reach out shortly to make it right.",
		c.FirstName, b.OwnerName,
	)
	return n
}

func ownerComplaintMessage(b BusinessInfo, c *models.Customer, j *models.Job, rating int) Notification {
	n := ownerNotification(b, j, constants.TemplateOwnerComplaint)
	n.Channel = models.ChannelEmail
	n.Subject = fmt.Sprintf("Low rating (%d/5) from %s", rating, c.FullName())
	n.Text = fmt.Sprintf(
		"%s rated their %s cleaning %d/5. Phone: %s, email: %s. Address: %s, %s.",
		c.FullName(), serviceDate(j.ScheduledDate), rating, c.Phone, c.Email, j.Address, j.ZipCode,
	)
	n.HTML = renderEmail(n.Subject, []string{n.Text}, b.Name)
	return n
}

func dayBeforeReminderMessage(b BusinessInfo, c *models.Customer, j *models.Job) Notification {
	n := customerNotification(c, j, models.ChannelSMS, constants.TemplateDayBeforeReminder)
	n.Text = fmt.Sprintf(
		"Reminder from %s: your cleaning is tomorrow, %s%s. Reply STOP to opt out of texts.",
		b.Name, serviceDate(j.ScheduledDate), slotSuffix(j.TimeSlot),
	)
	return n
}

func weeklyScheduleMessage(b BusinessInfo, cl *models.Cleaner, jobs []*models.Job, weekOf time.Time) Notification {
	n := Notification{
		Channel:       models.ChannelEmail,
		Template:      constants.TemplateWeeklySchedule,
		RecipientName: cl.FullName(),
		Email:         cl.Email,
		CleanerID:     utils.Ptr(cl.ID),
		Subject:       fmt.Sprintf("Your schedule for the week of %s", weekOf.Format("January 2")),
	}

	var lines []string
	for _, j := range jobs {
		lines = append(lines, fmt.Sprintf("%s%s: %s, %s (%.2f h)",
			serviceDate(j.ScheduledDate), slotSuffix(j.TimeSlot), j.Address, j.ZipCode, j.EstimatedHours))
	}
	schedule := "No cleanings are scheduled for you this week."
	if len(lines) > 0 {
		schedule = strings.Join(lines, "\n")
	}
	n.Text = fmt.Sprintf("Hi %s, here is your schedule:\n\n%s", cl.FirstName, schedule)
	n.HTML = renderEmail("Your weekly schedule", []string{fmt.Sprintf("Hi %s,", cl.FirstName), schedule}, b.Name)
	return n
}
