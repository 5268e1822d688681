package web

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/bull/imdb-assistant/internal/chat"
)

const sessionKey = "sid"

// currentSession returns the caller's chat session, creating one and setting
// the cookie when the cookie is missing or its session has expired.
func (h *Handler) currentSession(c *gin.Context) *chat.Session {
	cookieSession := sessions.Default(c)
	id, _ := cookieSession.Get(sessionKey).(string)

	session := h.sessions.GetOrCreate(id)
	if session.ID != id {
		cookieSession.Set(sessionKey, session.ID)
		if err := cookieSession.Save(); err != nil {
			h.logger.Warn("failed to save session cookie", "error", err)
		}
	}
	return session
}

func (h *Handler) renderChat(c *gin.Context, status int, session *chat.Session, errMsg string) {
	c.HTML(status, "chat.html", gin.H{
		"Tab":   "chat",
		"Turns": turnViews(session.Turns()),
		"Cards": session.LastCards(),
		"Error": errMsg,
	})
}

// ChatPage renders the chat tab.
func (h *Handler) ChatPage(c *gin.Context) {
	h.renderChat(c, http.StatusOK, h.currentSession(c), "")
}

// ChatSubmit runs one turn from the form and redirects back to the chat tab.
func (h *Handler) ChatSubmit(c *gin.Context) {
	session := h.currentSession(c)
	question := c.PostForm("question")
	if question == "" {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	if _, err := h.assistant.Respond(c.Request.Context(), session, question); err != nil {
		c.Error(err)
		h.renderChat(c, http.StatusInternalServerError, session, err.Error())
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// ChatReset clears the caller's history.
func (h *Handler) ChatReset(c *gin.Context) {
	h.currentSession(c).Reset()
	c.Redirect(http.StatusSeeOther, "/")
}

// DashboardPage renders the analytics tab.
func (h *Handler) DashboardPage(c *gin.Context) {
	c.HTML(http.StatusOK, "dashboard.html", gin.H{
		"Tab":  "dashboard",
		"View": h.dashboard,
	})
}

type chatRequest struct {
	Question  string `json:"question" binding:"required"`
	SessionID string `json:"session_id"`
}

type chatResponse struct {
	SessionID string      `json:"session_id"`
	Reply     *chat.Reply `json:"reply"`
	History   []chat.Turn `json:"history"`
}

// APIChat runs one turn. The session comes from session_id when given,
// otherwise from the cookie.
func (h *Handler) APIChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var session *chat.Session
	if req.SessionID != "" {
		session = h.sessions.GetOrCreate(req.SessionID)
	} else {
		session = h.currentSession(c)
	}

	reply, err := h.assistant.Respond(c.Request.Context(), session, req.Question)
	if err != nil {
		c.Error(err)
		status := http.StatusInternalServerError
		if errors.Is(err, chat.ErrEmptyQuestion) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error(), "session_id": session.ID})
		return
	}

	c.JSON(http.StatusOK, chatResponse{
		SessionID: session.ID,
		Reply:     reply,
		History:   session.Turns(),
	})
}

// APIHistory returns the history of the session named by the session_id
// query parameter, or of the cookie session.
func (h *Handler) APIHistory(c *gin.Context) {
	var session *chat.Session
	if id := c.Query("session_id"); id != "" {
		s, ok := h.sessions.Get(id)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown session"})
			return
		}
		session = s
	} else {
		session = h.currentSession(c)
	}

	turns := session.Turns()
	if turns == nil {
		turns = []chat.Turn{}
	}
	c.JSON(http.StatusOK, gin.H{"session_id": session.ID, "history": turns})
}

// APIDashboard returns the dashboard figures.
func (h *Handler) APIDashboard(c *gin.Context) {
	c.JSON(http.StatusOK, h.raw)
}
