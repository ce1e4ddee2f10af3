package middleware

import (
  "fmt"
  "net/http"
  "strings"
  "github.com/gin-gonic/gin"
  "github.com/golang-jwt/jwt/v5"
  "github.com/google/uuid"
  "github.com/calehb/fieldguide-backend/internal/logger"
  "github.com/calehb/fieldguide-backend/internal/requestdata"
)

// SessionMiddleware verifies tokens minted by the external identity
// provider. Sessions are HS256 JWTs whose sub is the user id and whose
// role claim gates admin-only routes; we never issue tokens ourselves.
type SessionMiddleware struct {
  log       *logger.Logger
  secretKey []byte
}

func NewSessionMiddleware(log *logger.Logger, secretKey string) *SessionMiddleware {
  middlewareLog := log.With("middleware", "SessionMiddleware")
  return &SessionMiddleware{log: middlewareLog, secretKey: []byte(secretKey)}
}

func (sm *SessionMiddleware) RequireSession() gin.HandlerFunc {
  return func(c *gin.Context) {
    tokenString := extractToken(c)
    if tokenString == "" {
      c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid token"})
      return
    }
    rd, err := sm.parseSession(tokenString)
    if err != nil {
      sm.log.Debug("Session token rejected", "error", err)
      c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid token"})
      return
    }
    ctx := requestdata.WithRequestData(c.Request.Context(), rd)
    c.Request = c.Request.WithContext(ctx)
    c.Next()
  }
}

func (sm *SessionMiddleware) RequireAdmin() gin.HandlerFunc {
  return func(c *gin.Context) {
    rd := requestdata.GetRequestData(c.Request.Context())
    if rd == nil || rd.UserID == uuid.Nil {
      c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid token"})
      return
    }
    if !rd.IsAdmin() {
      c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
      return
    }
    c.Next()
  }
}

func (sm *SessionMiddleware) parseSession(tokenString string) (*requestdata.RequestData, error) {
  token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
    if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
      return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
    }
    return sm.secretKey, nil
  })
  if err != nil {
    return nil, err
  }
  claims, ok := token.Claims.(jwt.MapClaims)
  if !ok || !token.Valid {
    return nil, fmt.Errorf("invalid token claims")
  }
  sub, err := claims.GetSubject()
  if err != nil || sub == "" {
    return nil, fmt.Errorf("missing sub claim")
  }
  userID, err := uuid.Parse(sub)
  if err != nil {
    return nil, fmt.Errorf("sub claim is not a user id: %w", err)
  }
  role, _ := claims["role"].(string)
  return &requestdata.RequestData{
    TokenString: tokenString,
    UserID:      userID,
    Role:        role,
  }, nil
}

func extractToken(c *gin.Context) string {
  if qToken := c.Query("token"); qToken != "" {
    return qToken
  }
  authHeader := c.GetHeader("Authorization")
  if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
    return authHeader[7:]
  }
  return ""
}
