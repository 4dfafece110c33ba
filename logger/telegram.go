package logger

import (
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/mikhailche/telebot"
	"go.uber.org/zap/zapcore"
)

const sendTimeout = 5 * time.Second

type Bot interface {
	Send(ctx context.Context, to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
}

type telegramCore struct {
	level      zapcore.Level
	fields     []zapcore.Field
	bot        Bot
	receiverID int64
}

func (t telegramCore) Enabled(level zapcore.Level) bool {
	return t.level.Enabled(level)
}

func (t telegramCore) With(fields []zapcore.Field) zapcore.Core {
	newFields := append([]zapcore.Field{}, t.fields...)
	t.fields = append(newFields, fields...)
	return t
}

func (t telegramCore) Check(entry zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if t.Enabled(entry.Level) {
		return ce.AddCore(entry, t)
	}
	return ce
}

var telegramMessageTmplt = template.Must(template.New("telegramMessageTmplt").
	Funcs(map[string]any{"Upper": strings.ToUpper}).
	Parse(`<b>lurelog</b> {{if .Entry.LoggerName}}[{{.Entry.LoggerName}}] {{end}}<b>{{Upper .Entry.Level.String}}</b> {{.Entry.Message}}
<pre>
{{range .Fields}} {{.Key}} = {{if ne .Integer 0}}{{.Integer}}{{end}}{{.String}}{{.Interface}}
{{end}}</pre>
`))

func (t telegramCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	var message strings.Builder
	allFields := append(append([]zapcore.Field{}, t.fields...), fields...)
	if err := telegramMessageTmplt.Execute(&message, map[string]any{"Entry": entry, "Fields": allFields}); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()
	if _, err := t.bot.Send(ctx, telebot.ChatID(t.receiverID), message.String(), telebot.ModeHTML); err != nil {
		return fmt.Errorf("alert to developer chat %d: %w", t.receiverID, err)
	}
	return nil
}

func (t telegramCore) Sync() error {
	return nil
}

func NewTelegramCore(level zapcore.Level, bot Bot, receiverID int64) zapcore.Core {
	return telegramCore{
		level:      level,
		bot:        bot,
		receiverID: receiverID,
	}
}
