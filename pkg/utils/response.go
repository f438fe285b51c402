package utils

import (
	"encoding/json"
	"log"
	"net/http"
)

// RespondJSON 发送JSON响应
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

// RespondData 发送 {success:true, data:...} 形式的成功响应。
func RespondData(w http.ResponseWriter, status int, data interface{}) {
	RespondJSON(w, status, map[string]interface{}{"success": true, "data": data})
}

// RespondError 发送 {success:false, message:...} 形式的错误响应。
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, map[string]interface{}{"success": false, "message": message})
}
