package mail

type ReminderEmailData struct {
	AgentName string
	LeadName  string
	DueAt     string
	Urgent    bool
}

type EmailSender struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}
